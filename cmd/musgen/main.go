// Command musgen generates the MUS serializers for the records persisted
// in Badger. Run it through go generate in the core package.
package main

import (
	"os"
	"reflect"
	"strings"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/poiesic/sosai/core"
)

const output = "./core/records_mus.gen.go"

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// go generate runs from core; paths are relative to the module root.
	if strings.HasSuffix(cwd, "core") {
		if err := os.Chdir(".."); err != nil {
			panic(err)
		}
	}

	bs, err := generate()
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(output, bs, 0644); err != nil {
		panic(err)
	}
}

func generate() ([]byte, error) {
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/sosai/core"),
	)
	if err != nil {
		return nil, err
	}

	if err := g.AddDefinedType(reflect.TypeFor[core.ID]()); err != nil {
		return nil, err
	}

	// Timestamps are stored as Unix microseconds.
	micro := typeops.WithTimeUnit(typeops.Micro)

	// Id, Email, Name, PasswordHash, CreatedAt
	err = g.AddStruct(reflect.TypeFor[core.User](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(micro))
	if err != nil {
		return nil, err
	}

	// UserId, eight text fields, CreatedAt, UpdatedAt
	err = g.AddStruct(reflect.TypeFor[core.Profile](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(micro),
		structops.WithField(micro))
	if err != nil {
		return nil, err
	}

	return g.Generate()
}
