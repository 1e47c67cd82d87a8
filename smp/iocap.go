package smp

// associationModel is the key agreement protocol selected by feature
// exchange ([Vol 3] Part H, Section 2.3.5.1, Table 2.8). Only Just
// Works and Numeric Comparison are implemented; a negotiation landing
// on either of the other two fails pairing outright.
type associationModel uint8

const (
	modelJustWorks associationModel = iota
	modelNumericComparison
	modelPasskeyEntry
	modelOutOfBand
)

// ioCapTable is the Secure Connections variant of the IO capability
// mapping table: rows are the initiator's IOCapability, columns the
// responder's. Unlike the legacy table, matching Display-capable pairs
// resolve to Numeric Comparison instead of Passkey Entry.
var ioCapTable = [5][5]associationModel{
	IOCapDisplayOnly: {
		IOCapDisplayOnly:     modelJustWorks,
		IOCapDisplayYesNo:    modelJustWorks,
		IOCapKeyboardOnly:    modelPasskeyEntry,
		IOCapNoInputNoOutput: modelJustWorks,
		IOCapKeyboardDisplay: modelPasskeyEntry,
	},
	IOCapDisplayYesNo: {
		IOCapDisplayOnly:     modelJustWorks,
		IOCapDisplayYesNo:    modelNumericComparison,
		IOCapKeyboardOnly:    modelPasskeyEntry,
		IOCapNoInputNoOutput: modelJustWorks,
		IOCapKeyboardDisplay: modelNumericComparison,
	},
	IOCapKeyboardOnly: {
		IOCapDisplayOnly:     modelPasskeyEntry,
		IOCapDisplayYesNo:    modelPasskeyEntry,
		IOCapKeyboardOnly:    modelPasskeyEntry,
		IOCapNoInputNoOutput: modelJustWorks,
		IOCapKeyboardDisplay: modelPasskeyEntry,
	},
	IOCapNoInputNoOutput: {
		IOCapDisplayOnly:     modelJustWorks,
		IOCapDisplayYesNo:    modelJustWorks,
		IOCapKeyboardOnly:    modelJustWorks,
		IOCapNoInputNoOutput: modelJustWorks,
		IOCapKeyboardDisplay: modelJustWorks,
	},
	IOCapKeyboardDisplay: {
		IOCapDisplayOnly:     modelPasskeyEntry,
		IOCapDisplayYesNo:    modelNumericComparison,
		IOCapKeyboardOnly:    modelPasskeyEntry,
		IOCapNoInputNoOutput: modelJustWorks,
		IOCapKeyboardDisplay: modelNumericComparison,
	},
}

// selectAssociationModel resolves the pairing method from both sides'
// advertised IO capability and MITM requirement. OOB is selected
// whenever either side reports OOB data present, taking priority over
// the IO capability table, per Section 2.3.5.1.
func selectAssociationModel(initiator, responder PairingFeatures) associationModel {
	if initiator.OOBDataPresent || responder.OOBDataPresent {
		return modelOutOfBand
	}
	if !initiator.AuthReq.Has(AuthReqMITM) && !responder.AuthReq.Has(AuthReqMITM) {
		return modelJustWorks
	}
	return ioCapTable[initiator.IOCap][responder.IOCap]
}
