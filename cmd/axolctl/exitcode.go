package main

import "errors"

// errExitNonZero is a sentinel a subcommand returns when it already printed
// its own per-item/per-feed error detail and only needs main to translate
// that into a non-zero exit code: 0 on success, 1 if any per-feed error
// occurred.
var errExitNonZero = errors.New("axolctl: one or more feeds reported errors")
