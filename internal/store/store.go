// Package store provides SQLite-based persistence for articles and
// subscriptions.
package store

// Schema is the SQLite schema for the aggregation engine. The UNIQUE
// constraint on link is the single enforcement point for article dedup.
const Schema = `
CREATE TABLE IF NOT EXISTS articles (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    title       TEXT NOT NULL,
    summary     TEXT NOT NULL,
    region      TEXT NOT NULL,
    topic       TEXT NOT NULL,
    date        TIMESTAMP NOT NULL,
    link        TEXT NOT NULL UNIQUE,
    image_url   TEXT,
    fetched_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id     INTEGER NOT NULL,
    region      TEXT NOT NULL,
    topic       TEXT NOT NULL,
    UNIQUE(user_id, region, topic)
);

CREATE INDEX IF NOT EXISTS idx_articles_region ON articles(region);
CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date);
CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
`
