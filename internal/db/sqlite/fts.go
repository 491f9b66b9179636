package sqlite

// TextIndexTable is the FTS5 table backing ranked search over templates.
const TextIndexTable = "templates_fts"

// textIndexDDL builds templates_fts as an external-content index and keeps it
// in sync with triggers. The final rebuild indexes rows written before the
// index existed.
const textIndexDDL = `
CREATE VIRTUAL TABLE IF NOT EXISTS templates_fts USING fts5(
    title, body, tags,
    content='templates',
    content_rowid='seq'
);

CREATE TRIGGER IF NOT EXISTS templates_fts_ai AFTER INSERT ON templates BEGIN
    INSERT INTO templates_fts(rowid, title, body, tags)
    VALUES (new.seq, new.title, new.body, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS templates_fts_ad AFTER DELETE ON templates BEGIN
    INSERT INTO templates_fts(templates_fts, rowid, title, body, tags)
    VALUES ('delete', old.seq, old.title, old.body, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS templates_fts_au AFTER UPDATE ON templates BEGIN
    INSERT INTO templates_fts(templates_fts, rowid, title, body, tags)
    VALUES ('delete', old.seq, old.title, old.body, old.tags);
    INSERT INTO templates_fts(rowid, title, body, tags)
    VALUES (new.seq, new.title, new.body, new.tags);
END;

INSERT INTO templates_fts(templates_fts) VALUES ('rebuild');
`

const dropTextIndexDDL = `
DROP TRIGGER IF EXISTS templates_fts_ai;
DROP TRIGGER IF EXISTS templates_fts_ad;
DROP TRIGGER IF EXISTS templates_fts_au;
DROP TABLE IF EXISTS templates_fts;
`
