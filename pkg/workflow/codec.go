package workflow

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// key-value stores keep whole aggregates as JSON documents

func encodeDefinition(d Definition) ([]byte, error) {
	buf, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal workflow definition %s", d.ID)
	}

	return buf, nil
}

func decodeDefinition(buf []byte) (d Definition, err error) {
	if err = json.Unmarshal(buf, &d); err != nil {
		return d, errors.Wrap(err, "failed to unmarshal workflow definition")
	}

	return d, nil
}

func encodeInstance(i Instance) ([]byte, error) {
	buf, err := json.Marshal(i)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal workflow instance %s", i.ID)
	}

	return buf, nil
}

func decodeInstance(buf []byte) (i Instance, err error) {
	if err = json.Unmarshal(buf, &i); err != nil {
		return i, errors.Wrap(err, "failed to unmarshal workflow instance")
	}

	return i, nil
}
