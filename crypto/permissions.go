package crypto

// PermissionBits enumerates the user access permission flags of
// Table 22 (7.6.3.2). Bit numbers are 1-based, matching the spec.
const (
	PermPrintLowRes  int32 = 1 << 2  // bit 3
	PermModify       int32 = 1 << 3  // bit 4
	PermCopy         int32 = 1 << 4  // bit 5 (rev 2) / extract (rev>=3 controlled by bit 10)
	PermAnnotate     int32 = 1 << 5  // bit 6
	PermFillForms    int32 = 1 << 8  // bit 9, rev>=3
	PermExtractAccess int32 = 1 << 9 // bit 10, rev>=3
	PermAssemble     int32 = 1 << 10 // bit 11, rev>=3
	PermPrintHighRes int32 = 1 << 11 // bit 12, rev>=3
)

// reservedMask covers bits 1,2,7,8 and 13-32, which 7.6.3.2 requires
// be set to 1 regardless of the caller's requested permissions.
const reservedMask int32 = 0x3 | 0xC0 | ^int32(0)<<12

// NormalizePermissions forces the reserved bits of Table 22 to 1 and
// leaves the permission bits as given, matching Acrobat's P-value
// encoding (stored as a signed 32-bit int).
func NormalizePermissions(p int16) int32 {
	return int32(p) | reservedMask
}
