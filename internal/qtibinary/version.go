package qtibinary

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/S0me0neR0man/qtistate/internal/binstream"
)

var (
	ErrUnknownVersion = errors.New("qtibinary: unknown format version")
	ErrUnknownBranch  = errors.New("qtibinary: unknown format branch")
)

// Branch is a line of format evolution. Its tag travels after the version
// number from BranchThreshold on.
type Branch string

const (
	BranchLegacy Branch = "L"
	BranchMaster Branch = "M"
)

const (
	// BranchThreshold is the first version carrying a branch tag.
	BranchThreshold uint8 = 9

	firstLegacy  uint8 = 1
	latestLegacy uint8 = 9
	latestMaster uint8 = 10
)

// Feature is an optional part of the format gated by version.
type Feature uint8

const (
	FeatureMultipleSections Feature = iota
	FeatureBranchRulesAndPreconditions
	FeatureDurations
	FeatureAttempting
	FeatureLastAction
	FeatureAlwaysAllowJumps
	FeaturePath
	FeatureWidePositions
)

func (f Feature) String() string {
	switch f {
	case FeatureMultipleSections:
		return "multipleSections"
	case FeatureBranchRulesAndPreconditions:
		return "branchRulesAndPreconditions"
	case FeatureDurations:
		return "durations"
	case FeatureAttempting:
		return "attempting"
	case FeatureLastAction:
		return "lastAction"
	case FeatureAlwaysAllowJumps:
		return "alwaysAllowJumps"
	case FeaturePath:
		return "path"
	case FeatureWidePositions:
		return "widePositions"
	default:
		return fmt.Sprintf("unknown(%d)", f)
	}
}

// legacyFeatures maps a feature to the legacy version introducing it.
var legacyFeatures = map[Feature]uint8{
	FeatureMultipleSections:            2,
	FeatureBranchRulesAndPreconditions: 3,
	FeatureDurations:                   4,
	FeatureAttempting:                  5,
	FeatureLastAction:                  6,
	FeatureAlwaysAllowJumps:            7,
	FeaturePath:                        8,
}

// masterFeatures maps the features of the master branch to the master
// version introducing them. Legacy features up to BranchThreshold are
// inherited.
var masterFeatures = map[Feature]uint8{
	FeatureWidePositions: 10,
}

// Version is the (number, branch) pair stored at the start of a stream. It
// never changes once read.
type Version struct {
	Number uint8
	Branch Branch
}

// Current is the version written by default.
func Current() Version {
	return Version{Number: latestMaster, Branch: BranchMaster}
}

// Legacy returns the legacy version n.
func Legacy(n uint8) Version {
	return Version{Number: n, Branch: BranchLegacy}
}

func (v Version) String() string {
	if v.Number < BranchThreshold {
		return fmt.Sprintf("%d", v.Number)
	}
	return fmt.Sprintf("%d%s", v.Number, v.Branch)
}

// Validate reports whether v belongs to the known range of its branch.
func (v Version) Validate() error {
	switch v.Branch {
	case BranchLegacy:
		if v.Number < firstLegacy || v.Number > latestLegacy {
			return errors.Wrapf(ErrUnknownVersion, "legacy version %d", v.Number)
		}
	case BranchMaster:
		if v.Number < BranchThreshold || v.Number > latestMaster {
			return errors.Wrapf(ErrUnknownVersion, "master version %d", v.Number)
		}
	default:
		return errors.Wrapf(ErrUnknownBranch, "%q", string(v.Branch))
	}
	return nil
}

// Supports reports whether streams of version v carry feature f.
func (v Version) Supports(f Feature) bool {
	switch v.Branch {
	case BranchLegacy:
		since, ok := legacyFeatures[f]
		return ok && v.Number >= since
	case BranchMaster:
		if since, ok := legacyFeatures[f]; ok && since <= BranchThreshold {
			return true
		}
		since, ok := masterFeatures[f]
		return ok && v.Number >= since
	default:
		return false
	}
}

func (v Version) StoresMultipleSections() bool {
	return v.Supports(FeatureMultipleSections)
}

func (v Version) StoresBranchRulesAndPreconditions() bool {
	return v.Supports(FeatureBranchRulesAndPreconditions)
}

func (v Version) StoresDurations() bool {
	return v.Supports(FeatureDurations)
}

func (v Version) StoresAttempting() bool {
	return v.Supports(FeatureAttempting)
}

func (v Version) StoresLastAction() bool {
	return v.Supports(FeatureLastAction)
}

func (v Version) StoresAlwaysAllowJumps() bool {
	return v.Supports(FeatureAlwaysAllowJumps)
}

func (v Version) StoresPath() bool {
	return v.Supports(FeaturePath)
}

// StoresWidePositions reports whether route positions and counts are
// 4-byte integers rather than shorts.
func (v Version) StoresWidePositions() bool {
	return v.Supports(FeatureWidePositions)
}

// Persist writes the version marker.
func (v Version) Persist(a *binstream.Access) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := a.WriteByte(v.Number); err != nil {
		return errors.Wrap(err, "version number")
	}
	if v.Number < BranchThreshold {
		return nil
	}
	return errors.Wrap(a.WriteString(string(v.Branch)), "version branch")
}

// RetrieveVersion reads the version marker. Versions below BranchThreshold
// belong to the legacy branch.
func RetrieveVersion(a *binstream.Access) (Version, error) {
	n, err := a.ReadByte()
	if err != nil {
		return Version{}, errors.Wrap(err, "version number")
	}
	v := Version{Number: n, Branch: BranchLegacy}
	if n >= BranchThreshold {
		tag, err := a.ReadString()
		if err != nil {
			return Version{}, errors.Wrap(err, "version branch")
		}
		v.Branch = Branch(tag)
	}
	if err := v.Validate(); err != nil {
		return Version{}, err
	}
	return v, nil
}
