package settings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/settings.schema.json
var schemaBytes []byte

const schemaURL = "settings.schema.json"

// Definitions validated independently. Popup fields and profiles are
// checked one by one so a single bad entry only resets itself.
const (
	defIDList            = "idList"
	defPopupSettings     = "popupSettings"
	defHeight            = "height"
	defSort              = "sort"
	defOnlyPinnedVisible = "onlyPinnedVisible"
	defProfiles          = "profiles"
	defProfile           = "profile"
	defTarget            = "targetExtensionId"
)

var (
	compiled    map[string]*jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
	printer     = message.NewPrinter(language.English)
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		out := make(map[string]*jsonschema.Schema)
		for _, def := range []string{defIDList, defPopupSettings, defHeight, defSort, defOnlyPinnedVisible, defProfiles, defProfile, defTarget} {
			sch, err := c.Compile(schemaURL + "#/$defs/" + def)
			if err != nil {
				compileErr = fmt.Errorf("compiling schema %s: %w", def, err)
				return
			}
			out[def] = sch
		}
		compiled = out
	})
	return compiled, compileErr
}

// check validates v against one definition and returns a readable reason
// when it does not conform.
func check(def string, v any) (ok bool, reason string) {
	all, err := schemas()
	if err != nil {
		return false, err.Error()
	}
	inst, err := instance(v)
	if err != nil {
		return false, err.Error()
	}
	if err := all[def].Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return false, leafMessage(ve)
		}
		return false, err.Error()
	}
	return true, ""
}

// instance converts v to the form the validator expects.
func instance(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}
	return inst, nil
}

// leafMessage returns the first leaf cause, localized.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	msg := ve.Error()
	if ve.ErrorKind != nil {
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	if len(ve.InstanceLocation) > 0 {
		return "/" + strings.Join(ve.InstanceLocation, "/") + ": " + msg
	}
	return msg
}
