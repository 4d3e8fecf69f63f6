// Package composer writes the composer.json that lets a merged WordPress package be
// installed through a private Composer repository.
package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/conn-castle/wpsync/internal/fsutil"
	"github.com/conn-castle/wpsync/internal/messages"
	"github.com/conn-castle/wpsync/internal/syncerr"
)

const (
	// FileName is the manifest written at the package root.
	FileName = "composer.json"
	// DefaultVendor is the vendor namespace used when none is configured.
	DefaultVendor = "creatorincome"
	// License is the license field of every generated manifest.
	License = "proprietary"

	TypePlugin = "wordpress-plugin"
	TypeTheme  = "wordpress-theme"
)

var namePart = regexp.MustCompile(`^[a-z0-9]([_.-]?[a-z0-9]+)*$`)

// Package describes one generated manifest.
type Package struct {
	Vendor      string
	Name        string
	Version     string
	Type        string
	Description string
}

// manifest fixes the field order of composer.json.
type manifest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Version     string `json:"version"`
	License     string `json:"license"`
	Description string `json:"description,omitempty"`
}

// Validate checks the package name parts, version and type.
func (p Package) Validate() error {
	vendor := p.vendor()
	if !namePart.MatchString(vendor) {
		return syncerr.Configf(messages.ComposerInvalidNameFmt, "vendor", vendor)
	}
	if !namePart.MatchString(p.Name) {
		return syncerr.Configf(messages.ComposerInvalidNameFmt, "name", p.Name)
	}
	if strings.TrimSpace(p.Version) == "" {
		return syncerr.Configf(messages.ComposerMissingVersion)
	}
	if p.Type != TypePlugin && p.Type != TypeTheme {
		return syncerr.Configf(messages.ComposerInvalidTypeFmt, p.Type, TypePlugin, TypeTheme)
	}
	return nil
}

func (p Package) vendor() string {
	if p.Vendor == "" {
		return DefaultVendor
	}
	return p.Vendor
}

// Generate renders the manifest with two-space indentation and a trailing newline.
func Generate(p Package) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest{
		Name:        p.vendor() + "/" + p.Name,
		Type:        p.Type,
		Version:     strings.TrimSpace(p.Version),
		License:     License,
		Description: p.Description,
	}); err != nil {
		return nil, fmt.Errorf(messages.ComposerEncodeFmt, err)
	}
	return buf.Bytes(), nil
}

// Write generates the manifest and writes it atomically into dir. It returns the file path.
func Write(dir string, p Package) (string, error) {
	data, err := Generate(p)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", &syncerr.FilesystemError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}
