package fdt

import (
	"encoding/binary"
)

// Header field layout and struct-block token values, as emitted by (and
// read back from) a packed FDT blob.
const (
	headerSize     = 0x28
	fdtVersion     = 17
	fdtLastCompVer = 16
	fdtMagic       = 0xd00dfeed

	tokenBeginNode = 0x1
	tokenEndNode   = 0x2
	tokenProp      = 0x3
	tokenNop       = 0x4
	tokenEnd       = 0x9
)

type header struct {
	totalSize     uint32
	offStruct     uint32
	offStrings    uint32
	offMemRsvmap  uint32
	version       uint32
	lastCompVer   uint32
	bootCPUIDPhys uint32
	sizeStrings   uint32
	sizeStruct    uint32
}

func parseHeader(data []byte) (header, error) {
	var h header
	if len(data) < headerSize {
		return h, &InputError{Reason: "blob shorter than fdt header"}
	}
	if binary.BigEndian.Uint32(data[0:4]) != fdtMagic {
		return h, &InputError{Reason: "bad fdt magic"}
	}
	h.totalSize = binary.BigEndian.Uint32(data[4:8])
	h.offStruct = binary.BigEndian.Uint32(data[8:12])
	h.offStrings = binary.BigEndian.Uint32(data[12:16])
	h.offMemRsvmap = binary.BigEndian.Uint32(data[16:20])
	h.version = binary.BigEndian.Uint32(data[20:24])
	h.lastCompVer = binary.BigEndian.Uint32(data[24:28])
	h.bootCPUIDPhys = binary.BigEndian.Uint32(data[28:32])
	h.sizeStrings = binary.BigEndian.Uint32(data[32:36])
	h.sizeStruct = binary.BigEndian.Uint32(data[36:40])
	if int(h.totalSize) > len(data) {
		return h, &InputError{Reason: "truncated fdt blob"}
	}
	return h, nil
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], fdtMagic)
	binary.BigEndian.PutUint32(buf[4:8], h.totalSize)
	binary.BigEndian.PutUint32(buf[8:12], h.offStruct)
	binary.BigEndian.PutUint32(buf[12:16], h.offStrings)
	binary.BigEndian.PutUint32(buf[16:20], h.offMemRsvmap)
	binary.BigEndian.PutUint32(buf[20:24], h.version)
	binary.BigEndian.PutUint32(buf[24:28], h.lastCompVer)
	binary.BigEndian.PutUint32(buf[28:32], h.bootCPUIDPhys)
	binary.BigEndian.PutUint32(buf[32:36], h.sizeStrings)
	binary.BigEndian.PutUint32(buf[36:40], h.sizeStruct)
	return buf
}

func readU32(data []byte, off int) (uint32, int) {
	return binary.BigEndian.Uint32(data[off:]), off + 4
}

func readCString(data []byte, off int) (string, int) {
	start := off
	for data[off] != 0 {
		off++
	}
	return string(data[start:off]), off + 1
}

func alignUp4(n int) int { return (n + 3) &^ 3 }

// structReader walks a struct block token by token.
type structReader struct {
	data    []byte
	strings []byte
	off     int
}

func (r *structReader) next() (tok uint32) {
	tok, r.off = readU32(r.data, r.off)
	return tok
}

func (r *structReader) nodeName() string {
	name, next := readCString(r.data, r.off)
	r.off = alignUp4(next)
	return name
}

func (r *structReader) prop() (name string, value []byte) {
	var length, nameoff uint32
	length, r.off = readU32(r.data, r.off)
	nameoff, r.off = readU32(r.data, r.off)
	name, _ = readCString(r.strings, int(nameoff))
	value = append([]byte(nil), r.data[r.off:r.off+int(length)]...)
	r.off = alignUp4(r.off + int(length))
	return name, value
}

// structWriter serializes a tree into a fresh struct+strings block pair,
// deduplicating property names into one string table entry each.
type structWriter struct {
	structBuf  []byte
	stringsBuf []byte
	stringsOff map[string]uint32
}

func newStructWriter() *structWriter {
	return &structWriter{stringsOff: map[string]uint32{}}
}

func (w *structWriter) writeToken(tok uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], tok)
	w.structBuf = append(w.structBuf, tmp[:]...)
}

func (w *structWriter) writeU32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.structBuf = append(w.structBuf, tmp[:]...)
}

func (w *structWriter) pad() {
	for len(w.structBuf)%4 != 0 {
		w.structBuf = append(w.structBuf, 0)
	}
}

func (w *structWriter) beginNode(name string) {
	w.writeToken(tokenBeginNode)
	w.structBuf = append(w.structBuf, []byte(name)...)
	w.structBuf = append(w.structBuf, 0)
	w.pad()
}

func (w *structWriter) endNode() {
	w.writeToken(tokenEndNode)
}

func (w *structWriter) stringOffset(name string) uint32 {
	if off, ok := w.stringsOff[name]; ok {
		return off
	}
	off := uint32(len(w.stringsBuf))
	w.stringsBuf = append(w.stringsBuf, []byte(name)...)
	w.stringsBuf = append(w.stringsBuf, 0)
	w.stringsOff[name] = off
	return off
}

// writeProp returns the struct-block offset of the property's length/value
// header, so the caller can record it as the Prop's new Offset.
func (w *structWriter) writeProp(name string, value []byte) int {
	w.writeToken(tokenProp)
	propOff := len(w.structBuf)
	w.writeU32(uint32(len(value)))
	w.writeU32(w.stringOffset(name))
	w.structBuf = append(w.structBuf, value...)
	w.pad()
	return propOff
}

func (w *structWriter) finish() {
	w.writeToken(tokenEnd)
	w.pad()
}
