package kv

import (
	"bytes"
	"reflect"

	ssz "github.com/ferranbt/fastssz"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/prysmaticlabs/lumen/runtime/version"
)

// encode serializes an ssz object and compresses it with snappy.
func encode(obj ssz.Marshaler) ([]byte, error) {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, errors.New("cannot encode nil object")
	}
	enc, err := obj.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, enc), nil
}

// encodeForked prepends the fork key for v before compressing so that reads
// can pick the matching SSZ layout.
func encodeForked(v int, obj ssz.Marshaler) ([]byte, error) {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, errors.New("cannot encode nil object")
	}
	key, err := keyForVersion(v)
	if err != nil {
		return nil, err
	}
	enc, err := obj.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	dst := make([]byte, len(key)+len(enc))
	copy(dst, key)
	copy(dst[len(key):], enc)
	return snappy.Encode(nil, dst), nil
}

func decodeUpdate(data []byte) (*lctypes.Update, error) {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	v, body, err := splitForkKey(data)
	if err != nil {
		return nil, err
	}
	return lctypes.UnmarshalUpdateSSZ(v, body)
}

func decodeHeader(data []byte) (*lctypes.Header, error) {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	v, body, err := splitForkKey(data)
	if err != nil {
		return nil, err
	}
	return lctypes.UnmarshalHeaderSSZ(v, body)
}

func decodeSyncCommittee(data []byte) (*lctypes.SyncCommittee, error) {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	committee := &lctypes.SyncCommittee{}
	if err := committee.UnmarshalSSZ(data); err != nil {
		return nil, err
	}
	return committee, nil
}

func keyForVersion(v int) ([]byte, error) {
	switch v {
	case version.Altair:
		return altairKey, nil
	case version.Bellatrix:
		return bellatrixKey, nil
	case version.Capella:
		return capellaKey, nil
	case version.Deneb:
		return denebKey, nil
	default:
		return nil, errors.Errorf("unsupported fork version %s", version.String(v))
	}
}

func splitForkKey(enc []byte) (int, []byte, error) {
	switch {
	case hasDenebKey(enc):
		return version.Deneb, enc[len(denebKey):], nil
	case hasCapellaKey(enc):
		return version.Capella, enc[len(capellaKey):], nil
	case hasBellatrixKey(enc):
		return version.Bellatrix, enc[len(bellatrixKey):], nil
	case hasAltairKey(enc):
		return version.Altair, enc[len(altairKey):], nil
	default:
		return 0, nil, errors.New("object has no known fork version prefix")
	}
}

func hasAltairKey(enc []byte) bool {
	return len(enc) >= len(altairKey) && bytes.Equal(enc[:len(altairKey)], altairKey)
}

func hasBellatrixKey(enc []byte) bool {
	return len(enc) >= len(bellatrixKey) && bytes.Equal(enc[:len(bellatrixKey)], bellatrixKey)
}

func hasCapellaKey(enc []byte) bool {
	return len(enc) >= len(capellaKey) && bytes.Equal(enc[:len(capellaKey)], capellaKey)
}

func hasDenebKey(enc []byte) bool {
	return len(enc) >= len(denebKey) && bytes.Equal(enc[:len(denebKey)], denebKey)
}
