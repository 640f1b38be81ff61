// Package userdata manages the ~/.extswitch/ directory structure: the shared
// settings file (or SQLite database), the installed-extensions root with its
// enabled-state file, initialization with proper permissions, and the health
// checks behind the doctor command.
package userdata
