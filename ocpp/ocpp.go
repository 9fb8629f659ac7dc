package ocpp

import (
	"encoding/json"
	"reflect"
)

// Request message
type Request interface {
	// GetFeatureName Returns the unique name of the feature, to which this request belongs to.
	GetFeatureName() string
}

// Response message
type Response interface {
	// GetFeatureName Returns the unique name of the feature, to which this request belongs to.
	GetFeatureName() string
}

type Feature interface {
	GetFeatureName() string
	GetRequestType() reflect.Type
	GetResponseType() reflect.Type
}

// FeatureSet maps action names to the features both sides may call.
type FeatureSet map[string]Feature

func NewFeatureSet(features ...Feature) FeatureSet {
	set := FeatureSet{}
	set.Add(features...)
	return set
}

func (fs FeatureSet) Add(features ...Feature) {
	for _, f := range features {
		fs[f.GetFeatureName()] = f
	}
}

func (fs FeatureSet) Get(action string) (Feature, bool) {
	f, ok := fs[action]
	return f, ok
}

func ParseRawJsonRequest(raw json.RawMessage, requestType reflect.Type) (Request, error) {
	value, err := parseRaw(raw, requestType)
	if err != nil {
		return nil, err
	}
	return value.(Request), nil
}

func ParseRawJsonResponse(raw json.RawMessage, responseType reflect.Type) (Response, error) {
	value, err := parseRaw(raw, responseType)
	if err != nil {
		return nil, err
	}
	return value.(Response), nil
}

func parseRaw(raw json.RawMessage, valueType reflect.Type) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}
	value := reflect.New(valueType).Interface()
	if err := json.Unmarshal(raw, value); err != nil {
		return nil, err
	}
	return value, nil
}

type feature struct {
	name         string
	requestType  reflect.Type
	responseType reflect.Type
}

// NewFeature describes an action by sample request and response values.
func NewFeature(request Request, response Response) Feature {
	return &feature{
		name:         request.GetFeatureName(),
		requestType:  indirectType(request),
		responseType: indirectType(response),
	}
}

func (f *feature) GetFeatureName() string {
	return f.name
}

func (f *feature) GetRequestType() reflect.Type {
	return f.requestType
}

func (f *feature) GetResponseType() reflect.Type {
	return f.responseType
}

func indirectType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
