package util

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

// PrettyJSON marshals a value and writes it as indented JSON
func PrettyJSON(w io.Writer, val interface{}) error {
	buf, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value")
	}

	if _, err = w.Write(pretty.Pretty(buf)); err != nil {
		return errors.Wrap(err, "failed to write pretty json")
	}

	return nil
}
