package persistence

import (
	"database/sql"
	"log/slog"

	"github.com/IliaW/site-crawl-worker/internal/model"
)

type MetadataStorage interface {
	Save(*model.PageResult)
}

type MetadataRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMetadataRepository(db *sql.DB, log *slog.Logger) *MetadataRepository {
	return &MetadataRepository{db: db, log: log}
}

func (mr *MetadataRepository) Save(page *model.PageResult) {
	_, err := mr.db.Exec("INSERT INTO page_metadata (url, status_code, content_length, scraped_at) VALUES (?, ?, ?, ?)",
		page.URL,
		page.StatusCode,
		page.ContentLength,
		page.ScrapedAt)
	if err != nil {
		mr.log.Error("failed to save page metadata to database.", slog.String("err", err.Error()))
		return
	}
	mr.log.Debug("page metadata saved to db.")
}
