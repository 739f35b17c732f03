package peptide

import (
	"testing"

	"glycoloc/internal/glycan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSequence = "TTGSLEPSSGASGPQVSSVK"

func TestNew(t *testing.T) {
	p, err := New(testSequence, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Len())

	_, err = New("PEPTIDEB", nil)
	assert.Error(t, err)
	_, err = New("", nil)
	assert.Error(t, err)
	_, err = New("PEPTIDE", map[int]float64{12: 1})
	assert.Error(t, err)
}

func TestMonoisotopicMass(t *testing.T) {
	p, err := New("PEPTIDE", nil)
	require.NoError(t, err)
	assert.InDelta(t, 799.359964, p.MonoisotopicMass(), 1e-5)

	mods, err := ParseAssignedMods("N-term(42.0106)", "PEPTIDE")
	require.NoError(t, err)
	acetyl, err := New("PEPTIDE", mods)
	require.NoError(t, err)
	assert.InDelta(t, 799.359964+42.0106, acetyl.MonoisotopicMass(), 1e-5)
}

func TestParseAssignedMods(t *testing.T) {
	mods, err := ParseAssignedMods("5C(57.0215), N-term(42.0106), c-term(1.5)", "PEPTCDE")
	require.NoError(t, err)
	assert.InDelta(t, 57.0215, mods[5], 1e-9)
	assert.InDelta(t, 42.0106, mods[0], 1e-9)
	assert.InDelta(t, 1.5, mods[8], 1e-9)

	empty, err := ParseAssignedMods("", "PEPTIDE")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseAssignedMods("9C(57.0215)", "PEPTCDE")
	assert.Error(t, err)
	_, err = ParseAssignedMods("5C57", "PEPTCDE")
	assert.Error(t, err)
}

func TestPossibleModSites(t *testing.T) {
	p, err := New(testSequence, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 8, 9, 12, 17, 18}, p.PossibleModSites(glycan.MotifO))

	n, err := New("ANATNPSK", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, n.PossibleModSites(glycan.MotifN))

	taken, err := New("STK", map[int]float64{1: 79.966})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, taken.PossibleModSites(glycan.MotifO))
}

func TestModPosMotif(t *testing.T) {
	sites, motifs := ModPosMotif(MixedGlyco, []int{3, 10}, []int{1, 5})
	assert.Equal(t, []int{1, 3, 5, 10}, sites)
	assert.Equal(t, []string{glycan.MotifO, glycan.MotifN, glycan.MotifO, glycan.MotifN}, motifs)

	sites, motifs = ModPosMotif(OGlyco, []int{3}, []int{1, 5})
	assert.Equal(t, []int{1, 5}, sites)
	assert.Equal(t, []string{glycan.MotifO, glycan.MotifO}, motifs)
}

func TestFragment(t *testing.T) {
	p, err := New(testSequence, nil)
	require.NoError(t, err)

	t.Run("etd skips proline", func(t *testing.T) {
		products := p.Fragment(ETD)
		cs := FilterTypes(products, C)
		zs := FilterTypes(products, ZDot)
		assert.Len(t, cs, 17)
		assert.Len(t, zs, 18)
		assert.Len(t, FilterTypes(products, Y), 19)
		for _, c := range cs {
			assert.NotEqual(t, byte('P'), p.Sequence[c.Position])
		}
		for _, z := range zs {
			if z.Position > 1 {
				assert.NotEqual(t, byte('P'), p.Sequence[z.Position-1])
			}
		}
	})

	t.Run("complementary masses", func(t *testing.T) {
		products := p.Fragment(EThcD)
		bs := FilterTypes(products, B)
		ys := FilterTypes(products, Y)
		require.Len(t, bs, 19)
		require.Len(t, ys, 19)
		// b_k + y_(n-k) = M + H2O - H2O
		assert.InDelta(t, p.MonoisotopicMass(), bs[4].NeutralMass+ys[14].NeutralMass, 1e-6)

		full := FilterTypes(products, ZDot)
		last := full[len(full)-1]
		assert.Equal(t, 1, last.Position)
		assert.InDelta(t, p.MonoisotopicMass()-AmmoniaMass+HydrogenMass, last.NeutralMass, 1e-6)
	})

	t.Run("hcd", func(t *testing.T) {
		products := p.Fragment(HCD)
		assert.Empty(t, FilterTypes(products, C, ZDot))
	})
}

func TestParseDissociation(t *testing.T) {
	d, err := ParseDissociation("ethcd")
	require.NoError(t, err)
	assert.Equal(t, EThcD, d)
	assert.True(t, d.HasETD())
	assert.False(t, HCD.HasETD())
	_, err = ParseDissociation("UVPD")
	assert.Error(t, err)
}
