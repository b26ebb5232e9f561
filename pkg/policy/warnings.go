package policy

import "github.com/richochetclementine1315/chain-lens/pkg/script"

// WarningCode is the closed set of structured warning codes a
// transaction report can carry.
type WarningCode string

const (
	WarnHighFee             WarningCode = "HIGH_FEE"
	WarnDustOutput          WarningCode = "DUST_OUTPUT"
	WarnUnknownOutputScript WarningCode = "UNKNOWN_OUTPUT_SCRIPT"
	WarnRBFSignaling        WarningCode = "RBF_SIGNALING"
)

// Warning is one structured warning entry.
type Warning struct {
	Code   WarningCode
	Detail string
}

// Thresholds parameterizes the warning analyzer instead of hardcoding
// constants at each call site. Only transaction-mode reports evaluate
// warnings; block reports carry none.
type Thresholds struct {
	HighFeeSatPerVb float64
	DustByKind      map[script.Kind]int64
}

// DefaultDustByKind is Bitcoin Core's approximate per-template dust
// relay threshold at the default 3 sat/vB relay fee, simplified to a
// fixed table (GetDustThreshold varies continuously with feerate; a
// forensic analyzer reporting on historical transactions has no live
// relay feerate to consult, so the conventional default-feerate values
// are used as static thresholds).
var DefaultDustByKind = map[script.Kind]int64{
	script.KindP2PKH:  546,
	script.KindP2SH:   540,
	script.KindP2WPKH: 294,
	script.KindP2WSH:  330,
	script.KindP2TR:   330,
}

const defaultDustFallback = 546

// DefaultThresholds is the policy spec.md's worked example assumes: a
// 1000 sat/vB high-fee cutoff and the per-type dust table above.
var DefaultThresholds = Thresholds{
	HighFeeSatPerVb: 1000,
	DustByKind:      DefaultDustByKind,
}

func (t Thresholds) dustThreshold(kind script.Kind) int64 {
	if v, ok := t.DustByKind[kind]; ok {
		return v
	}
	return defaultDustFallback
}

// OutputForWarnings is the minimal view of an output the warning
// generator needs: its value and classified kind.
type OutputForWarnings struct {
	ValueSats int64
	Kind      script.Kind
}

// Warnings produces the structured warning list for a transaction given
// its fee, fee rate, RBF signal, and outputs.
func Warnings(t Thresholds, feeSats int64, feeRateKnown bool, feeRateSatPerVb float64, rbfSignaling bool, outputs []OutputForWarnings) []Warning {
	var warnings []Warning

	if feeRateKnown && feeRateSatPerVb > t.HighFeeSatPerVb {
		warnings = append(warnings, Warning{Code: WarnHighFee})
	}

	for _, out := range outputs {
		if out.Kind == script.KindOpReturn {
			continue
		}
		if out.ValueSats < t.dustThreshold(out.Kind) {
			warnings = append(warnings, Warning{Code: WarnDustOutput})
			break
		}
	}

	for _, out := range outputs {
		if out.Kind == script.KindUnknown {
			warnings = append(warnings, Warning{Code: WarnUnknownOutputScript})
			break
		}
	}

	if rbfSignaling {
		warnings = append(warnings, Warning{Code: WarnRBFSignaling})
	}

	return warnings
}
