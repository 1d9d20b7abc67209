package storage

const schema = `
-- The 'queue_items' table holds pending write-intents in append order.
-- seq provides the FIFO ordering; id is the client-generated uuid that
-- stays stable for the item's lifetime.
CREATE TABLE IF NOT EXISTS queue_items (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    action TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0
);

-- The 'failed_writes' table records write-intents dropped after
-- exhausting their retries, so a permanent drop is never silent.
CREATE TABLE IF NOT EXISTS failed_writes (
    id TEXT PRIMARY KEY,
    action TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    retry_count INTEGER NOT NULL,
    failed_at DATETIME NOT NULL,
    reason TEXT NOT NULL
);
`
