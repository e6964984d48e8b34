// SPDX-License-Identifier: MIT

package pyrt

import _ "embed"

// workerSource is the Python shim hosting the wrapped SDK. It is staged to a
// temp file at spawn time so the interpreter gets a real __file__.
//
//go:embed worker.py
var workerSource []byte
