package qtibinary

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/qtistate/internal/binstream"
)

var allFeatures = []Feature{
	FeatureMultipleSections,
	FeatureBranchRulesAndPreconditions,
	FeatureDurations,
	FeatureAttempting,
	FeatureLastAction,
	FeatureAlwaysAllowJumps,
	FeaturePath,
	FeatureWidePositions,
}

func TestVersion_Supports_Legacy(t *testing.T) {
	for n := firstLegacy; n <= latestLegacy; n++ {
		v := Legacy(n)
		require.NoError(t, v.Validate())
		for _, f := range allFeatures {
			since, gated := legacyFeatures[f]
			require.Equal(t, gated && n >= since, v.Supports(f), "%s %s", v, f)
		}
		require.False(t, v.StoresWidePositions())
	}
	require.False(t, Legacy(1).StoresMultipleSections())
	require.True(t, Legacy(2).StoresMultipleSections())
	require.False(t, Legacy(7).StoresPath())
	require.True(t, Legacy(8).StoresPath())
}

func TestVersion_Supports_Master(t *testing.T) {
	for n := BranchThreshold; n <= latestMaster; n++ {
		v := Version{Number: n, Branch: BranchMaster}
		require.NoError(t, v.Validate())
		for f := range legacyFeatures {
			require.True(t, v.Supports(f), "%s %s", v, f)
		}
	}
	require.False(t, Version{Number: 9, Branch: BranchMaster}.StoresWidePositions())
	require.True(t, Current().StoresWidePositions())
}

func TestVersion_Validate(t *testing.T) {
	require.True(t, errors.Is(Legacy(0).Validate(), ErrUnknownVersion))
	require.True(t, errors.Is(Legacy(10).Validate(), ErrUnknownVersion))
	require.True(t, errors.Is(Version{Number: 8, Branch: BranchMaster}.Validate(), ErrUnknownVersion))
	require.True(t, errors.Is(Version{Number: 11, Branch: BranchMaster}.Validate(), ErrUnknownVersion))
	require.True(t, errors.Is(Version{Number: 9, Branch: "X"}.Validate(), ErrUnknownBranch))
	require.False(t, Version{Number: 9, Branch: "X"}.Supports(FeatureMultipleSections))
}

func TestVersion_Persist_Retrieve(t *testing.T) {
	tests := []struct {
		version Version
		bytes   []byte
	}{
		{version: Legacy(1), bytes: []byte{0x01}},
		{version: Legacy(8), bytes: []byte{0x08}},
		{version: Legacy(9), bytes: []byte{0x09, 0x01, 0x00, 'L'}},
		{version: Version{Number: 9, Branch: BranchMaster}, bytes: []byte{0x09, 0x01, 0x00, 'M'}},
		{version: Current(), bytes: []byte{0x0A, 0x01, 0x00, 'M'}},
	}
	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			s := openStream(t, nil)
			require.NoError(t, tt.version.Persist(binstream.NewAccess(s)))
			require.Equal(t, tt.bytes, s.Bytes())

			got, err := RetrieveVersion(binstream.NewAccess(s))
			require.NoError(t, err)
			require.Equal(t, tt.version, got)
		})
	}
}

func TestRetrieveVersion_Errors(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  error
	}{
		{name: "zero", bytes: []byte{0x00}, want: ErrUnknownVersion},
		{name: "future", bytes: []byte{0x0B, 0x01, 0x00, 'M'}, want: ErrUnknownVersion},
		{name: "legacy past the fork", bytes: []byte{0x0A, 0x01, 0x00, 'L'}, want: ErrUnknownVersion},
		{name: "unknown branch", bytes: []byte{0x09, 0x01, 0x00, 'X'}, want: ErrUnknownBranch},
		{name: "empty", bytes: nil, want: binstream.ErrByteRead},
		{name: "truncated branch", bytes: []byte{0x0A, 0x01}, want: binstream.ErrStringRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RetrieveVersion(binstream.NewAccess(openStream(t, tt.bytes)))
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestVersion_Persist_Unknown(t *testing.T) {
	s := openStream(t, nil)
	err := Version{Number: 12, Branch: BranchMaster}.Persist(binstream.NewAccess(s))
	require.True(t, errors.Is(err, ErrUnknownVersion))
	require.Zero(t, s.Len())
}
