package iso8583

import "fmt"

// Field indexes with a fixed meaning across ISO8583 variants.
const (
	FieldMTI          = 0
	FieldBitmap       = 1
	FieldResponseCode = 39
)

// Network management MTIs.
const (
	MTINetworkRequest  = "0800"
	MTINetworkResponse = "0810"
)

// MTI returns field 0 as text, "" when absent.
func MTI(fs *FieldSet) string {
	return fs.GetText(FieldMTI)
}

// SetMTI validates and stores a four digit message type indicator.
func SetMTI(fs *FieldSet, mti string) error {
	if err := checkMTI(mti); err != nil {
		return err
	}
	return fs.SetText(FieldMTI, mti)
}

func checkMTI(mti string) error {
	if len(mti) != 4 {
		return fmt.Errorf("%w: MTI %q is not 4 digits", ErrInvalidValue, mti)
	}
	for i := 0; i < len(mti); i++ {
		if mti[i] < '0' || mti[i] > '9' {
			return fmt.Errorf("%w: MTI %q is not numeric", ErrInvalidValue, mti)
		}
	}
	return nil
}

// IsNetworkManagement reports whether mti is a network management message.
func IsNetworkManagement(mti string) bool {
	return mti == MTINetworkRequest || mti == MTINetworkResponse
}

// ResponseMTI flips the message function digit of a request MTI
// (0100 -> 0110, 0800 -> 0810).
func ResponseMTI(mti string) (string, error) {
	if err := checkMTI(mti); err != nil {
		return "", err
	}
	if mti[2] != '0' && mti[2] != '2' {
		return "", fmt.Errorf("%w: MTI %s is not a request", ErrInvalidValue, mti)
	}
	b := []byte(mti)
	b[2]++
	return string(b), nil
}

// NewResponse clones a request, flips its MTI and sets the response code in
// field 39 when code is not empty.
func NewResponse(req *FieldSet, code string) (*FieldSet, error) {
	mti, err := ResponseMTI(MTI(req))
	if err != nil {
		return nil, err
	}
	resp := req.Clone()
	if err := resp.SetText(FieldMTI, mti); err != nil {
		return nil, err
	}
	if code != "" {
		if err := resp.SetText(FieldResponseCode, code); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
