package rpcapi

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/datatrails/go-datatrails-kvstore/errhandling"
	"github.com/datatrails/go-datatrails-kvstore/kvstore"
)

// The messages of proto/kvstore.proto. Field numbers must match the schema.

type GetRequest struct {
	Token string
	Key   string
}

type GetResponse struct {
	Value string
	Found bool
}

type SetRequest struct {
	Token string
	Key   string
	Value string
	// TtlSeconds is absent for a key that never expires.
	TtlSeconds *int64
}

type SetResponse struct {
	Success bool
	Message string
}

type DeleteRequest struct {
	Token string
	Key   string
}

type DeleteResponse struct {
	Success bool
	Message string
}

type ListRequest struct {
	Token  string
	Prefix string
}

type ListResponse struct {
	Key string
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Healthy bool
	Message string
}

func requireKey(key string) error {
	if key == "" {
		return errhandling.InvalidRequest("key must not be empty")
	}
	return nil
}

// Validate runs after the credential check, so that a bad credential is
// always reported as Unauthenticated whatever else is wrong with the request.
func (m *GetRequest) Validate() error {
	return requireKey(m.Key)
}

func (m *SetRequest) Validate() error {
	if err := requireKey(m.Key); err != nil {
		return err
	}
	return kvstore.CheckTTL(m.TtlSeconds)
}

func (m *DeleteRequest) Validate() error {
	return requireKey(m.Key)
}

func (m *GetRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.Key)
	return b, nil
}

func (m *GetRequest) Unmarshal(b []byte) error {
	*m = GetRequest{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Token),
		2: stringField(&m.Key),
	})
}

func (m *GetResponse) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Value)
	b = appendBool(b, 2, m.Found)
	return b, nil
}

func (m *GetResponse) Unmarshal(b []byte) error {
	*m = GetResponse{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Value),
		2: boolField(&m.Found),
	})
}

func (m *SetRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.Key)
	b = appendString(b, 3, m.Value)
	b = appendOptionalInt64(b, 4, m.TtlSeconds)
	return b, nil
}

func (m *SetRequest) Unmarshal(b []byte) error {
	*m = SetRequest{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Token),
		2: stringField(&m.Key),
		3: stringField(&m.Value),
		4: optionalInt64Field(&m.TtlSeconds),
	})
}

func (m *SetResponse) Marshal() ([]byte, error) {
	var b []byte
	b = appendBool(b, 1, m.Success)
	b = appendString(b, 2, m.Message)
	return b, nil
}

func (m *SetResponse) Unmarshal(b []byte) error {
	*m = SetResponse{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: boolField(&m.Success),
		2: stringField(&m.Message),
	})
}

func (m *DeleteRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.Key)
	return b, nil
}

func (m *DeleteRequest) Unmarshal(b []byte) error {
	*m = DeleteRequest{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Token),
		2: stringField(&m.Key),
	})
}

func (m *DeleteResponse) Marshal() ([]byte, error) {
	var b []byte
	b = appendBool(b, 1, m.Success)
	b = appendString(b, 2, m.Message)
	return b, nil
}

func (m *DeleteResponse) Unmarshal(b []byte) error {
	*m = DeleteResponse{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: boolField(&m.Success),
		2: stringField(&m.Message),
	})
}

func (m *ListRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.Prefix)
	return b, nil
}

func (m *ListRequest) Unmarshal(b []byte) error {
	*m = ListRequest{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Token),
		2: stringField(&m.Prefix),
	})
}

func (m *ListResponse) Marshal() ([]byte, error) {
	return appendString(nil, 1, m.Key), nil
}

func (m *ListResponse) Unmarshal(b []byte) error {
	*m = ListResponse{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: stringField(&m.Key),
	})
}

func (m *HealthCheckRequest) Marshal() ([]byte, error) {
	return nil, nil
}

func (m *HealthCheckRequest) Unmarshal(b []byte) error {
	return unmarshalFields(b, nil)
}

func (m *HealthCheckResponse) Marshal() ([]byte, error) {
	var b []byte
	b = appendBool(b, 1, m.Healthy)
	b = appendString(b, 2, m.Message)
	return b, nil
}

func (m *HealthCheckResponse) Unmarshal(b []byte) error {
	*m = HealthCheckResponse{}
	return unmarshalFields(b, map[protowire.Number]fieldDecoder{
		1: boolField(&m.Healthy),
		2: stringField(&m.Message),
	})
}
