// Package state keeps the install record: a one line text file naming the
// build of a version that is currently installed on this machine.
package state

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Record struct {
	path string
}

func Open(path string) *Record {
	return &Record{path: path}
}

func (r *Record) Path() string {
	return r.path
}

// Build returns the recorded build, or "" if nothing is recorded.
func (r *Record) Build() (string, error) {
	data, err := ioutil.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", errors.Wrapf(err, "reading install record %s", r.path)
	}

	return strings.TrimSpace(string(data)), nil
}

// Matches reports whether build is recorded and installPath still exists.
func (r *Record) Matches(build, installPath string) (bool, error) {
	cur, err := r.Build()
	if err != nil {
		return false, err
	}

	if cur != build {
		return false, nil
	}

	_, err = os.Stat(installPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Write replaces the record with build.
func (r *Record) Write(build string) error {
	err := os.MkdirAll(filepath.Dir(r.path), 0755)
	if err != nil {
		return errors.Wrapf(err, "creating install record dir")
	}

	tmp := r.path + ".tmp"

	err = ioutil.WriteFile(tmp, []byte(build), 0644)
	if err != nil {
		return errors.Wrapf(err, "writing install record %s", r.path)
	}

	return errors.Wrapf(os.Rename(tmp, r.path), "writing install record %s", r.path)
}

// Remove deletes the record. A missing record is not an error.
func (r *Record) Remove() error {
	err := os.Remove(r.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing install record %s", r.path)
	}

	return nil
}
