package tinycore

import (
	"reflect"
	"slices"
	"strings"
)

const schemaTag = "core"

type schemaField struct {
	typ   reflect.Type
	name  string
	index int
}

// schema describes service-map struct M:
// every exported field is a service, named after the field
// or after its `core:"name"` tag. `core:"-"` skips the field.
type schema struct {
	err    error
	t      reflect.Type
	byName map[string]schemaField
	names  []string
}

func newSchema[M any]() *schema {
	t := reflect.TypeOf(new(M)).Elem()

	if t.Kind() != reflect.Struct {
		return &schema{t: t, err: &SchemaError{T: t}}
	}

	s := &schema{t: t, byName: make(map[string]schemaField)}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup(schemaTag); ok {
			tagName, _, _ := strings.Cut(tag, ",")

			if tagName == "-" {
				continue
			}

			if tagName != "" {
				name = tagName
			}
		}

		if _, ok := s.byName[name]; ok {
			return &schema{t: t, err: &SchemaError{T: t, Duplicate: name}}
		}

		s.byName[name] = schemaField{typ: field.Type, name: name, index: i}
		s.names = append(s.names, name)
	}

	slices.Sort(s.names)

	return s
}

func (s *schema) has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// records validates services against the schema and returns registry records for them.
func (s *schema) records(services ServiceMap) ([]*record, error) {
	if s.err != nil {
		return nil, s.err
	}

	missing := make([]string, 0)
	for _, name := range s.names {
		if service, ok := services[name]; !ok || service == nil {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, newMissingServiceError(missing)
	}

	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}

	slices.Sort(names)

	records := make([]*record, 0, len(names))
	for _, name := range names {
		field, ok := s.byName[name]
		if !ok {
			return nil, newUnknownServiceError(name, s.names)
		}

		rec, err := newRecord(name, services[name])
		if err != nil {
			return nil, err
		}

		if !rec.serviceType.AssignableTo(field.typ) {
			return nil, newServiceTypeError(name, field.typ, rec.serviceType)
		}

		records = append(records, rec)
	}

	return records, nil
}

// fill returns M instance with every service field set using get.
func (s *schema) fill(get func(string) (any, error)) (reflect.Value, error) {
	if s.err != nil {
		return reflect.Value{}, s.err
	}

	p := reflect.New(s.t).Elem()

	for _, name := range s.names {
		field := s.byName[name]

		service, err := get(name)
		if err != nil {
			return reflect.Value{}, err
		}

		v := reflect.ValueOf(service)
		if !v.Type().AssignableTo(field.typ) {
			return reflect.Value{}, newServiceTypeError(name, field.typ, v.Type())
		}

		p.Field(field.index).Set(v)
	}

	return p, nil
}
