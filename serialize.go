package merkle

import (
	"encoding"
	"encoding/binary"
	"encoding/json"
	"errors"

	"google.golang.org/protobuf/proto"
)

var (
	defaultMarshal = Serialize
	protoMarshal   = proto.MarshalOptions{Deterministic: true}
)

// Serialize is the default canonical encoding of an element before it
// is hashed into a leaf. Byte slices and strings are used as-is, protobuf
// messages are marshaled deterministically, BinaryMarshalers encode
// themselves, fixed-width integers are big-endian, and anything else is
// JSON.
func Serialize(i interface{}) ([]byte, error) {
	switch v := i.(type) {
	case nil:
		return nil, errors.New("cannot serialize nil element")
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case proto.Message:
		return protoMarshal.Marshal(v)
	case encoding.BinaryMarshaler:
		return v.MarshalBinary()
	case int:
		return binary.BigEndian.AppendUint64(nil, uint64(v)), nil
	case int8:
		return []byte{byte(v)}, nil
	case int16:
		return binary.BigEndian.AppendUint16(nil, uint16(v)), nil
	case int32:
		return binary.BigEndian.AppendUint32(nil, uint32(v)), nil
	case int64:
		return binary.BigEndian.AppendUint64(nil, uint64(v)), nil
	case uint:
		return binary.BigEndian.AppendUint64(nil, uint64(v)), nil
	case uint8:
		return []byte{v}, nil
	case uint16:
		return binary.BigEndian.AppendUint16(nil, v), nil
	case uint32:
		return binary.BigEndian.AppendUint32(nil, v), nil
	case uint64:
		return binary.BigEndian.AppendUint64(nil, v), nil
	}
	return json.Marshal(i)
}
