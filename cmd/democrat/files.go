package main

import (
	"io"
	"os"

	"github.com/vango-dev/democrat/internal/demo"
	"github.com/vango-dev/democrat/internal/errors"
	"github.com/vango-dev/democrat/pkg/codec"
)

// resolveFormat picks the explicit format when one was given, then the
// format matching path's extension, then fallback.
func resolveFormat(explicit, path string, fallback codec.Format) (codec.Format, error) {
	if explicit != "" {
		f, err := codec.ParseFormat(explicit)
		if err != nil {
			return "", errors.New("DEM021").WithDetail(err.Error())
		}
		return f, nil
	}
	if path != "" && path != "-" {
		if f, err := codec.FormatForPath(path); err == nil {
			return f, nil
		}
	}
	return fallback, nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.New("DEM025").WithDetail("reading " + path).Wrap(err)
	}
	return data, nil
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	var err error
	if path == "" || path == "-" {
		_, err = stdout.Write(data)
	} else {
		err = os.WriteFile(path, data, 0644)
	}
	if err != nil {
		return errors.New("DEM025").WithDetail("writing " + path).Wrap(err)
	}
	return nil
}

// lookupTree resolves a demo tree name into a structured error.
func lookupTree(name string) (demo.Tree, error) {
	t, err := demo.Lookup(name)
	if err != nil {
		return demo.Tree{}, errors.New("DEM022").WithDetail(err.Error())
	}
	return t, nil
}
