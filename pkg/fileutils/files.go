package fileutils

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	replaceChars = []string{"\"", "*", "/", ":", "<", ">", "?", "\\", "|", "."}
	removeChars  = []string{"\t", "\r", "\n"}
)

// FileExists checks if a file exsists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// IsDir checks if the path is a directory
func IsDir(filename string) bool {
	f, err := os.Stat(filename)
	return err == nil && f.IsDir()
}

// FileNameWithoutExtension returning the filename without the extension
func FileNameWithoutExtension(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// ValidPathName return a valid path name, all non file chars will be changed to _
func ValidPathName(s string) string {
	s, _ = url.PathUnescape(s)
	for _, remove := range removeChars {
		s = strings.ReplaceAll(s, remove, "")
	}
	for _, replace := range replaceChars {
		s = strings.ReplaceAll(s, replace, "_")
	}
	return strings.TrimSpace(s)
}

// OutputName file name for an image title with the given extension, fallback if the title is empty
func OutputName(title, fallback, ext string) string {
	name := ValidPathName(title)
	if name == "" {
		name = fallback
	}
	return name + ext
}

// WriteFile writes the data to a temporary file next to filename and renames it, so filename
// is either complete or untouched
func WriteFile(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	f, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
