package lsql

import (
	"os"

	ltest "github.com/mltrack/mltrack/pkg/test"
	_ "modernc.org/sqlite"
)

func NewTestingConfig(t ltest.T) (*Config, error) {
	file, err := os.CreateTemp("", "")
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() {
		_, err := file.Stat()
		if !os.IsNotExist(err) {
			os.RemoveAll(file.Name())
		}
	})
	return &Config{
		Engine:       EngineSqlite,
		DatabaseName: "test",
		Address:      file.Name(),
	}, nil
}
