// Copyright 2014-2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/prefixtree/v2"
	"github.com/juju/errors"
)

type settings struct {
	MemDumpBytes    int    `doc:"default number of memory bytes to dump"`
	DisasmLines     int    `doc:"default number of lines to disassemble"`
	MaxStepLines    int    `doc:"max lines to disassemble when stepping"`
	BatchCycles     int    `doc:"cycles per scheduler batch when running"`
	NextDisasmAddr  uint16 `doc:"address of next disassembly"`
	NextMemDumpAddr uint16 `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		MemDumpBytes: 64,
		DisasmLines:  10,
		MaxStepLines: 20,
	}
}

type settingsField struct {
	name  string
	index int
	kind  reflect.Kind
	typ   reflect.Type
	doc   string
}

var (
	settingsTree   = prefixtree.New[*settingsField]()
	settingsFields []settingsField
)

func init() {
	t := reflect.TypeOf(settings{})
	settingsFields = make([]settingsField, t.NumField())
	for i := range settingsFields {
		f := t.Field(i)
		settingsFields[i] = settingsField{
			name:  f.Name,
			index: i,
			kind:  f.Type.Kind(),
			typ:   f.Type,
			doc:   f.Tag.Get("doc"),
		}
		settingsTree.Add(strings.ToLower(f.Name), &settingsFields[i])
	}
}

// Display writes every setting and its value.
func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for i, f := range settingsFields {
		v := value.Field(i)
		var line string
		switch f.kind {
		case reflect.Uint16:
			line = fmt.Sprintf("    %-16s $%04X", f.name, uint16(v.Uint()))
		default:
			line = fmt.Sprintf("    %-16s %v", f.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", line, f.doc)
	}
}

// Kind returns the kind of the setting named by key, which may be any
// unambiguous prefix of the name. It returns reflect.Invalid if there is
// no such setting.
func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.kind
}

// Set updates a setting.
func (s *settings) Set(key string, value any) error {
	f, err := settingsTree.FindValue(strings.ToLower(key))
	if err != nil {
		return errors.NotFoundf("setting '%s'", key)
	}

	in := reflect.ValueOf(value)
	if !in.Type().ConvertibleTo(f.typ) {
		return errors.NotValidf("value for %s", f.name)
	}
	reflect.ValueOf(s).Elem().Field(f.index).Set(in.Convert(f.typ))
	return nil
}
