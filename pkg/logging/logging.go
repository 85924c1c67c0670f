package logging

import (
	"os"
	"path/filepath"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/spf13/viper"
)

// KeyLogFile is the log file setting clay's logging section registers.
const KeyLogFile = "log-file"

// Init (re)initializes the global logger from the --log-* flags that
// clay.InitViper registered. Interactive commands own the terminal, so
// unless a log file was given their logs go to DefaultFile.
func Init(interactive bool) error {
	if interactive && viper.GetString(KeyLogFile) == "" {
		viper.Set(KeyLogFile, DefaultFile())
	}
	return clay.InitLogger()
}

// DefaultFile is where the interactive client logs when no file is given.
// The file is rotated by the logger.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pdfchat", "pdfchat.log")
}
