package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jobera/job-feed/internal/docstore"
)

// Table structure:
//
// CREATE TABLE IF NOT EXISTS document (
// 	collection VARCHAR(255) NOT NULL,
// 	id VARCHAR(255) NOT NULL,
// 	data JSONB NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(collection, id)
// );
//
// Every write NOTIFYs the jobfeed_documents channel with the collection name
// so open subscriptions can re-run their query.

// ConnURL renders the postgres connection string shared by the pool and the
// notification listener.
func ConnURL(databaseUser, databasePassword, databaseHost, databasePort, databaseName, sslMode string) string {
	return fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=%s",
		databaseUser,
		databasePassword,
		databaseHost,
		databasePort,
		databaseName,
		sslMode,
	)
}

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}

// EnsureSchema creates the document table, the change-notification trigger
// and one expression index per declared composite index.
func EnsureSchema(conn *sql.DB, indexes []docstore.Index) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document (
			collection VARCHAR(255) NOT NULL,
			id VARCHAR(255) NOT NULL,
			data JSONB NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY(collection, id)
		)`,
		`CREATE OR REPLACE FUNCTION notify_document_change() RETURNS trigger AS $$
		BEGIN
			IF TG_OP = 'DELETE' THEN
				PERFORM pg_notify('jobfeed_documents', OLD.collection);
				RETURN OLD;
			END IF;
			PERFORM pg_notify('jobfeed_documents', NEW.collection);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS document_change ON document`,
		`CREATE TRIGGER document_change AFTER INSERT OR UPDATE OR DELETE ON document
			FOR EACH ROW EXECUTE PROCEDURE notify_document_change()`,
	}
	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	for i, idx := range indexes {
		cols := ""
		for j, f := range idx.Fields {
			if j > 0 {
				cols += ", "
			}
			cols += fmt.Sprintf("(data->>'%s')", f)
		}
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS document_composite_%d ON document (%s) WHERE collection = '%s'`,
			i, cols, idx.Collection)
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// DefaultIndexes lists the composite indexes the job feed's queries rely on.
func DefaultIndexes() []docstore.Index {
	return []docstore.Index{
		{Collection: "jobs", Fields: []string{"categoryId", "publishedDate"}},
		{Collection: "jobs", Fields: []string{"companyId", "publishedDate"}},
	}
}
