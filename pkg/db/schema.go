package db

const filePragmas = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;
`

const schema = `
-- One row per corpus file
CREATE TABLE IF NOT EXISTS documents (
    doc_id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    path TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    platform TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    last_updated TEXT,
    extraction_method TEXT NOT NULL DEFAULT '',
    quality_score REAL NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0,
    content_length INTEGER NOT NULL DEFAULT 0,
    has_code_examples BOOLEAN NOT NULL DEFAULT 0,
    has_images BOOLEAN NOT NULL DEFAULT 0,

    -- Computed at load time
    word_count INTEGER NOT NULL DEFAULT 0,
    section_count INTEGER NOT NULL DEFAULT 0,
    code_block_count INTEGER NOT NULL DEFAULT 0,
    image_count INTEGER NOT NULL DEFAULT 0,
    language TEXT NOT NULL DEFAULT '',
    quality_band TEXT NOT NULL DEFAULT '',
    valid BOOLEAN NOT NULL DEFAULT 1,

    checksum TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    attribution TEXT NOT NULL DEFAULT '',
    sections_json TEXT,
    metadata_json TEXT,
    extra_json TEXT,
    indexed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_platform ON documents(platform);
CREATE INDEX IF NOT EXISTS idx_documents_quality ON documents(quality_score);
CREATE INDEX IF NOT EXISTS idx_documents_invalid ON documents(valid) WHERE valid = 0;

-- Front matter keywords (weight 1, ordered) and computed top words (weight = count)
CREATE TABLE IF NOT EXISTS document_keywords (
    doc_id INTEGER NOT NULL,
    source TEXT NOT NULL CHECK (source IN ('frontmatter', 'computed')),
    keyword TEXT NOT NULL,
    weight INTEGER NOT NULL DEFAULT 1,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (doc_id, source, keyword),
    FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON document_keywords(keyword COLLATE NOCASE);

-- Declared and detected platforms
CREATE TABLE IF NOT EXISTS document_platforms (
    doc_id INTEGER NOT NULL,
    platform TEXT NOT NULL,
    PRIMARY KEY (doc_id, platform),
    FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_platforms_platform ON document_platforms(platform);

-- Validation findings
CREATE TABLE IF NOT EXISTS document_issues (
    issue_id INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id INTEGER NOT NULL,
    field TEXT NOT NULL,
    severity TEXT NOT NULL CHECK (severity IN ('error', 'warning')),
    message TEXT NOT NULL,
    FOREIGN KEY (doc_id) REFERENCES documents(doc_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_issues_doc ON document_issues(doc_id);

-- Full-text index; rowid = documents.doc_id
CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
    title,
    keywords,
    body,
    tokenize = 'porter unicode61'
);

-- Index runs
CREATE TABLE IF NOT EXISTS index_runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    root TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    file_count INTEGER NOT NULL DEFAULT 0,
    indexed_count INTEGER NOT NULL DEFAULT 0,
    unchanged_count INTEGER NOT NULL DEFAULT 0,
    removed_count INTEGER NOT NULL DEFAULT 0,
    failed_count INTEGER NOT NULL DEFAULT 0,
    invalid_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_failures (
    failure_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    error_type TEXT NOT NULL,
    message TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES index_runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_failures_run ON run_failures(run_id);
`
