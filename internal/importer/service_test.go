package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqahq/halaqa/internal/importer"
)

func TestService_Import(t *testing.T) {
	svc := importer.NewService()

	students, err := svc.Import(importer.FormatRoster, strings.NewReader("name,age\nSalim,11\n"))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Salim", students[0].Name)
}

func TestService_ImportUnknownFormat(t *testing.T) {
	svc := importer.NewService()

	_, err := svc.Import(importer.Format("xml"), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown import format")
}
