package importer

import (
	"io"

	"github.com/halaqahq/halaqa/internal/student"
)

type Format string

const (
	FormatRoster Format = "roster"
)

type Importer interface {
	Parse(r io.Reader) ([]student.CreateParams, error)
}
