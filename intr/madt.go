package intr

import "encoding/binary"

// madtHeaderSize is the size of the firmware table header consumed
// before record scanning begins, per spec.md §6.
const madtHeaderSize = 8

// madtEntryIOController is the MADT-like record type carrying an I/O
// controller descriptor, per spec.md §6.
const madtEntryIOController = 1

// ParseMADT walks a MADT-like firmware table as laid out in spec.md
// §6: an 8-byte header (consumed and discarded here), followed by a
// sequence of [type:u8, length:u8, payload:length-2 bytes] records.
// Type-1 records declare an I/O controller with [id:u8, reserved:u8,
// mmio_base:u32 LE, gsi_base:u32 LE]. Unknown record types are skipped.
// A record whose length exceeds the remaining buffer terminates the
// scan without error: partial trailing data is not itself malformed,
// it is simply where the usable portion of the table ends. Records
// shorter than 2 bytes are treated as length 2 to guarantee the scan
// always makes progress.
func ParseMADT(data []byte) []IOControllerDesc {
	if len(data) < madtHeaderSize {
		return nil
	}
	buf := data[madtHeaderSize:]

	var descs []IOControllerDesc
	for len(buf) >= 2 {
		recType := buf[0]
		length := int(buf[1])
		if length < 2 {
			length = 2
		}
		if length > len(buf) {
			break
		}

		if recType == madtEntryIOController && length >= 2+10 {
			payload := buf[2:length]
			descs = append(descs, IOControllerDesc{
				ID:       payload[0],
				MMIOBase: binary.LittleEndian.Uint32(payload[2:6]),
				GSIBase:  binary.LittleEndian.Uint32(payload[6:10]),
			})
		}

		buf = buf[length:]
	}
	return descs
}
