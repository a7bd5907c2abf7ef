package plugins

import (
	"github.com/kilianp07/lessonalloc/config"
	"github.com/kilianp07/lessonalloc/core/runlog"
)

func init() {
	RegisterRunStore("jsonl", func(c config.RunLogConfig) (runlog.Store, error) {
		if c.MaxSizeMB > 0 {
			return runlog.NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return runlog.NewJSONLStore(c.Path)
	})
	RegisterRunStore("sqlite", func(c config.RunLogConfig) (runlog.Store, error) {
		return runlog.NewSQLiteStore(c.Path)
	})
	RegisterRunStore("none", func(config.RunLogConfig) (runlog.Store, error) {
		return runlog.NopStore{}, nil
	})
}
