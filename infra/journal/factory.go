package journal

import (
	"errors"

	"github.com/kilianp07/carbontrip/core/factory"
	corejournal "github.com/kilianp07/carbontrip/core/journal"
)

type pathConf struct {
	Path string `json:"path"`
}

func decodePath(conf map[string]any) (string, error) {
	var c pathConf
	if err := factory.Decode(conf, &c); err != nil {
		return "", err
	}
	if c.Path == "" {
		return "", errors.New("journal: path is required")
	}
	return c.Path, nil
}

// init registers the file backed journey stores.
func init() {
	_ = corejournal.RegisterStore("jsonl", func(conf map[string]any) (corejournal.Store, error) {
		p, err := decodePath(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(p)
	})
	_ = corejournal.RegisterStore("sqlite", func(conf map[string]any) (corejournal.Store, error) {
		p, err := decodePath(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(p)
	})
}
