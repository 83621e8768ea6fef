package lock

import "strings"

// gSeriesNameHints are case-insensitive substrings in a scanned device
// name that suggest G-Series when credentials don't already pin a variant.
var gSeriesNameHints = []string{"g4-", "g-lock", "gseries", "imz", "bander"}

// SelectVariant maps credentials (and, for TT-Series auto-detect, an
// optional scanned device name) to the protocol variant a session should
// speak. An explicit credentials variant always wins over any name
// inference; name hints only disambiguate when the caller hasn't already
// committed to one via Credentials.
func SelectVariant(creds Credentials, scannedName string) Variant {
	if creds.Variant == VariantGSeries || creds.Variant == VariantTTSeries {
		return creds.Variant
	}
	if ttLockIDNameRE.MatchString(scannedName) {
		return VariantTTSeries
	}
	lower := strings.ToLower(scannedName)
	for _, hint := range gSeriesNameHints {
		if strings.Contains(lower, hint) {
			return VariantGSeries
		}
	}
	return VariantUnknown
}

// IsTTSeriesAutoDetectName reports whether name looks like a TT-Series
// device advertising its own lock-id (an 8-decimal-digit name).
func IsTTSeriesAutoDetectName(name string) bool {
	return ttLockIDNameRE.MatchString(name)
}
