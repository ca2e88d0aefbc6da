package output

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/sonemaro/dbwalk/pkg/logger"
)

func (f *formatter) formatTOML(result *Result) (string, error) {
	f.log.Debug("Formatting TOML output")

	bytes, err := toml.Marshal(f.buildDocument(result))
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal TOML")
		return "", err
	}

	return string(bytes), nil
}
