package roster_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/halaqahq/halaqa/internal/importer/roster"
)

func TestParser_ArabicHeaders(t *testing.T) {
	csv := `الاسم,العمر,السورة الحالية
سالم بن أحمد,12,الملك
عمر بن خالد,١٠,النبأ
,9,يس
فهد بن سعد,,عبس
`

	p := roster.New()
	students, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, students, 3)

	assert.Equal(t, "سالم بن أحمد", students[0].Name)
	require.NotNil(t, students[0].Age)
	assert.Equal(t, 12, *students[0].Age)
	assert.Equal(t, "الملك", students[0].CurrentSurah)

	// Arabic-Indic digits parse as ages too.
	require.NotNil(t, students[1].Age)
	assert.Equal(t, 10, *students[1].Age)

	// Rows without a name are skipped; a missing age stays nil.
	assert.Equal(t, "فهد بن سعد", students[2].Name)
	assert.Nil(t, students[2].Age)
}

func TestParser_EnglishHeaders(t *testing.T) {
	csv := `name,age,current_surah
Salim,11,Al-Mulk
Omar,,An-Naba
`

	p := roster.New()
	students, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, "Salim", students[0].Name)
	require.NotNil(t, students[0].Age)
	assert.Equal(t, 11, *students[0].Age)
	assert.Equal(t, "Al-Mulk", students[0].CurrentSurah)

	assert.Nil(t, students[1].Age)
}

func TestParser_HeaderNotOnFirstLine(t *testing.T) {
	csv := `كشف الطلاب - مركز التحفيظ

الاسم,العمر,السورة الحالية
سالم,12,الملك
`

	p := roster.New()
	students, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "سالم", students[0].Name)
}

func TestParser_Windows1256Export(t *testing.T) {
	csv := "الاسم,العمر\nسالم,12\n"

	encoded, err := charmap.Windows1256.NewEncoder().Bytes([]byte(csv))
	require.NoError(t, err)

	p := roster.New()
	students, err := p.Parse(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "سالم", students[0].Name)
}

func TestParser_UnknownFormat(t *testing.T) {
	csv := `foo,bar
1,2
`

	p := roster.New()
	_, err := p.Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching roster format")
}

func TestParser_BogusAges(t *testing.T) {
	csv := `name,age
TooOld,200
Negative,-3
Words,kid
`

	p := roster.New()
	students, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, students, 3)

	for _, s := range students {
		assert.Nil(t, s.Age)
	}
}
