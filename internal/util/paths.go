package util

import "strings"

// ObjectKey joins a remote folder and a file name into an object key.
// Leading and trailing slashes are trimmed from the folder; an empty folder
// yields the bare name.
func ObjectKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	name = strings.TrimLeft(name, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// ShortName returns the last path segment of a local or remote file path
func ShortName(path string) string {
	path = strings.TrimRight(path, "/")
	if idx := strings.LastIndex(path, "/"); idx != -1 {
		return path[idx+1:]
	}
	return path
}
