package iso8583

// fieldClass groups the 1987 data elements by representation. Each schema
// variant maps a class to a registry type.
type fieldClass int

const (
	clsNumeric fieldClass = iota
	clsAmount
	clsLLNumeric
	clsTrack
	clsChar
	clsLLChar
	clsLLLChar
	clsBinary
	clsLLLBinary
)

type iso87Field struct {
	id     int
	class  fieldClass
	length int
	name   string
}

// iso87Fields lists data elements 2..128 of ISO 8583:1987. Binary lengths
// are in bytes.
var iso87Fields = []iso87Field{
	{2, clsLLNumeric, 19, "Primary Account Number"},
	{3, clsNumeric, 6, "Processing Code"},
	{4, clsAmount, 12, "Amount, Transaction"},
	{5, clsAmount, 12, "Amount, Settlement"},
	{6, clsAmount, 12, "Amount, Cardholder Billing"},
	{7, clsNumeric, 10, "Transmission Date & Time"},
	{8, clsAmount, 8, "Amount, Cardholder Billing Fee"},
	{9, clsNumeric, 8, "Conversion Rate, Settlement"},
	{10, clsNumeric, 8, "Conversion Rate, Cardholder Billing"},
	{11, clsNumeric, 6, "System Trace Audit Number"},
	{12, clsNumeric, 6, "Time, Local Transaction"},
	{13, clsNumeric, 4, "Date, Local Transaction"},
	{14, clsNumeric, 4, "Date, Expiration"},
	{15, clsNumeric, 4, "Date, Settlement"},
	{16, clsNumeric, 4, "Date, Conversion"},
	{17, clsNumeric, 4, "Date, Capture"},
	{18, clsNumeric, 4, "Merchant Type"},
	{19, clsNumeric, 4, "Acquiring Institution Country Code"},
	{20, clsNumeric, 4, "PAN Extended, Country Code"},
	{21, clsNumeric, 3, "Forwarding Institution Country Code"},
	{22, clsNumeric, 3, "Point of Service Entry Mode"},
	{23, clsNumeric, 3, "Application PAN Sequence Number"},
	{24, clsNumeric, 3, "Network International Identifier"},
	{25, clsNumeric, 2, "Point of Service Condition Code"},
	{26, clsNumeric, 2, "Point of Service Capture Code"},
	{27, clsNumeric, 3, "Authorizing Identification Response Length"},
	{28, clsChar, 9, "Amount, Transaction Fee"},
	{29, clsChar, 3, "Amount, Settlement Fee"},
	{30, clsChar, 3, "Amount, Transaction Processing Fee"},
	{31, clsLLNumeric, 99, "Amount, Settlement Processing Fee"},
	{32, clsLLNumeric, 99, "Acquiring Institution Identification Code"},
	{33, clsLLNumeric, 99, "Forwarding Institution Identification Code"},
	{34, clsLLChar, 28, "Primary Account Number, Extended"},
	{35, clsTrack, 37, "Track 2 Data"},
	{36, clsTrack, 99, "Track 3 Data"},
	{37, clsChar, 12, "Retrieval Reference Number"},
	{38, clsChar, 6, "Authorization Identification Response"},
	{39, clsChar, 2, "Response Code"},
	{40, clsChar, 3, "Service Restriction Code"},
	{41, clsChar, 8, "Card Acceptor Terminal Identification"},
	{42, clsChar, 15, "Card Acceptor Identification Code"},
	{43, clsChar, 40, "Card Acceptor Name/Location"},
	{44, clsLLChar, 25, "Additional Response Data"},
	{45, clsLLChar, 76, "Track 1 Data"},
	{46, clsLLLChar, 999, "Additional Data - ISO"},
	{47, clsLLLChar, 999, "Additional Data - National"},
	{48, clsLLLChar, 999, "Additional Data - Private"},
	{49, clsChar, 3, "Currency Code, Transaction"},
	{50, clsChar, 3, "Currency Code, Settlement"},
	{51, clsChar, 3, "Currency Code, Cardholder Billing"},
	{52, clsBinary, 8, "PIN Data"},
	{53, clsNumeric, 16, "Security Related Control Information"},
	{54, clsLLLChar, 120, "Additional Amounts"},
	{55, clsLLLBinary, 999, "ICC Data"},
	{56, clsLLLChar, 999, "Reserved ISO"},
	{57, clsLLLChar, 999, "Reserved National"},
	{58, clsLLLChar, 999, "Reserved National"},
	{59, clsLLLChar, 999, "Reserved National"},
	{60, clsLLLChar, 999, "Reserved Private"},
	{61, clsLLLChar, 999, "Reserved Private"},
	{62, clsLLLChar, 999, "Reserved Private"},
	{63, clsLLLChar, 999, "Reserved Private"},
	{64, clsBinary, 8, "Message Authentication Code"},
	{65, clsBinary, 1, "Extended Bitmap"},
	{66, clsNumeric, 1, "Settlement Code"},
	{67, clsNumeric, 2, "Extended Payment Code"},
	{68, clsNumeric, 3, "Receiving Institution Country Code"},
	{69, clsNumeric, 3, "Settlement Institution Country Code"},
	{70, clsNumeric, 3, "Network Management Information Code"},
	{71, clsNumeric, 4, "Message Number"},
	{72, clsNumeric, 4, "Message Number, Last"},
	{73, clsNumeric, 6, "Date, Action"},
	{74, clsAmount, 10, "Credits, Number"},
	{75, clsAmount, 10, "Credits, Reversal Number"},
	{76, clsAmount, 10, "Debits, Number"},
	{77, clsAmount, 10, "Debits, Reversal Number"},
	{78, clsAmount, 10, "Transfer, Number"},
	{79, clsAmount, 10, "Transfer, Reversal Number"},
	{80, clsAmount, 10, "Inquiries, Number"},
	{81, clsAmount, 10, "Authorizations, Number"},
	{82, clsAmount, 12, "Credits, Processing Fee Amount"},
	{83, clsAmount, 12, "Credits, Transaction Fee Amount"},
	{84, clsAmount, 12, "Debits, Processing Fee Amount"},
	{85, clsAmount, 12, "Debits, Transaction Fee Amount"},
	{86, clsAmount, 16, "Credits, Amount"},
	{87, clsAmount, 16, "Credits, Reversal Amount"},
	{88, clsAmount, 16, "Debits, Amount"},
	{89, clsAmount, 16, "Debits, Reversal Amount"},
	{90, clsNumeric, 42, "Original Data Elements"},
	{91, clsChar, 1, "File Update Code"},
	{92, clsChar, 2, "File Security Code"},
	{93, clsChar, 5, "Response Indicator"},
	{94, clsChar, 7, "Service Indicator"},
	{95, clsChar, 42, "Replacement Amounts"},
	{96, clsBinary, 8, "Message Security Code"},
	{97, clsChar, 17, "Amount, Net Settlement"},
	{98, clsChar, 25, "Payee"},
	{99, clsLLNumeric, 11, "Settlement Institution Identification Code"},
	{100, clsLLNumeric, 11, "Receiving Institution Identification Code"},
	{101, clsLLChar, 17, "File Name"},
	{102, clsLLChar, 28, "Account Identification 1"},
	{103, clsLLChar, 28, "Account Identification 2"},
	{104, clsLLLChar, 100, "Transaction Description"},
	{105, clsLLLChar, 999, "Reserved for ISO Use"},
	{106, clsLLLChar, 999, "Reserved for ISO Use"},
	{107, clsLLLChar, 999, "Reserved for ISO Use"},
	{108, clsLLLChar, 999, "Reserved for ISO Use"},
	{109, clsLLLChar, 999, "Reserved for ISO Use"},
	{110, clsLLLChar, 999, "Reserved for ISO Use"},
	{111, clsLLLChar, 999, "Reserved for ISO Use"},
	{112, clsLLLChar, 999, "Reserved for National Use"},
	{113, clsLLLChar, 999, "Reserved for National Use"},
	{114, clsLLLChar, 999, "Reserved for National Use"},
	{115, clsLLLChar, 999, "Reserved for National Use"},
	{116, clsLLLChar, 999, "Reserved for National Use"},
	{117, clsLLLChar, 999, "Reserved for National Use"},
	{118, clsLLLChar, 999, "Reserved for National Use"},
	{119, clsLLLChar, 999, "Reserved for National Use"},
	{120, clsLLLChar, 999, "Reserved for Private Use"},
	{121, clsLLLChar, 999, "Reserved for Private Use"},
	{122, clsLLLChar, 999, "Reserved for Private Use"},
	{123, clsLLLChar, 999, "Reserved for Private Use"},
	{124, clsLLLChar, 999, "Reserved for Private Use"},
	{125, clsLLLChar, 999, "Reserved for Private Use"},
	{126, clsLLLChar, 999, "Reserved for Private Use"},
	{127, clsLLLChar, 999, "Reserved for Private Use"},
	{128, clsBinary, 8, "Message Authentication Code"},
}

type iso87Variant struct {
	name   string
	mti    string
	bitmap string
	types  map[fieldClass]string
	pads   map[fieldClass]string
}

var (
	iso87ASCII = iso87Variant{
		name:   "iso87a",
		mti:    "numeric",
		bitmap: "hex-bitmap",
		types: map[fieldClass]string{
			clsNumeric:   "numeric",
			clsAmount:    "numeric",
			clsLLNumeric: "llnum",
			clsTrack:     "llchar",
			clsChar:      "char",
			clsLLChar:    "llchar",
			clsLLLChar:   "lllchar",
			clsBinary:    "hex-binary",
			clsLLLBinary: "lllbinary",
		},
		pads: map[fieldClass]string{clsNumeric: PadNone},
	}
	iso87Binary = iso87Variant{
		name:   "iso87b",
		mti:    "bcd-numeric",
		bitmap: "bitmap",
		types: map[fieldClass]string{
			clsNumeric:   "bcd-numeric",
			clsAmount:    "bcd-numeric",
			clsLLNumeric: "bcd-llnum",
			clsTrack:     "bcd-llnum",
			clsChar:      "char",
			clsLLChar:    "bcd-llchar",
			clsLLLChar:   "bcd-lllchar",
			clsBinary:    "binary",
			clsLLLBinary: "bcd-lllbinary",
		},
		pads: map[fieldClass]string{clsNumeric: PadNone, clsTrack: PadRight},
	}
)

func (v iso87Variant) schema() *Schema {
	s := &Schema{
		Name:          v.name,
		Kind:          KindBitmap,
		MaxValidField: MaxFieldNumber,
		Fields: []FieldSchema{
			{ID: Int(FieldMTI), Type: v.mti, Length: 4, Name: "Message Type Indicator", Pad: PadNone},
			{ID: Int(FieldBitmap), Type: v.bitmap, Length: BitmapSize + SecondaryBitmapSize, Name: "Bitmap"},
		},
	}
	for _, f := range iso87Fields {
		s.Fields = append(s.Fields, FieldSchema{
			ID:     Int(f.id),
			Type:   v.types[f.class],
			Length: f.length,
			Name:   f.name,
			Pad:    v.pads[f.class],
		})
	}
	return s
}

// ISO87ASCIISchema returns the 1987 field set with ASCII numerics, ASCII
// length prefixes and a hex bitmap. Numeric codes must be given at full
// width; amounts are zero padded.
func ISO87ASCIISchema() *Schema {
	return iso87ASCII.schema()
}

// ISO87BinarySchema returns the 1987 field set with BCD numerics and
// lengths and a binary bitmap.
func ISO87BinarySchema() *Schema {
	return iso87Binary.schema()
}

// BuiltinSchema returns a built-in schema by name: "iso87a" or "iso87b".
func BuiltinSchema(name string) (*Schema, bool) {
	switch name {
	case iso87ASCII.name:
		return ISO87ASCIISchema(), true
	case iso87Binary.name:
		return ISO87BinarySchema(), true
	}
	return nil, false
}
