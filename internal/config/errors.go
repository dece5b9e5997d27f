package config

import "errors"

var ErrFileDoesNotExist = errors.New("options file does not exist")
var ErrReadConfigFail = errors.New("failed to read options file")
var ErrConfigParsingFail = errors.New("failed to parse options file")
var ErrInvalidConfig = errors.New("invalid options")
