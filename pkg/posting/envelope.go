// Package posting submits voucher XML to the gateway through the TallyPrime
// import interface and interprets the import result: created/altered counts,
// the assigned voucher ID, and line-level error messages with a coarse
// classification for user feedback.
package posting

import "fmt"

// importEnvelope is the TallyPrime data import request format. The voucher
// body goes inside a TALLYMESSAGE element.
const importEnvelope = `<ENVELOPE>
  <HEADER>
    <VERSION>1</VERSION>
    <TALLYREQUEST>Import</TALLYREQUEST>
    <TYPE>Data</TYPE>
    <ID>Vouchers</ID>
  </HEADER>
  <BODY>
    <DESC/>
    <DATA>
      <TALLYMESSAGE>
%s
      </TALLYMESSAGE>
    </DATA>
  </BODY>
</ENVELOPE>`

// WrapForImport wraps raw voucher XML in the import envelope.
func WrapForImport(voucherXML string) string {
	return fmt.Sprintf(importEnvelope, voucherXML)
}
