package platdata

// AssignSeqs gives every bound device its final uclass sequence number:
// an /aliases-assigned node keeps the number ReadAliases recorded for it;
// otherwise the smallest non-negative integer not already claimed in the
// uclass's alias tables is allocated and recorded, so a later lookup of
// the same node (or a later run over the same input) is stable.
func (c *Compiler) AssignSeqs() {
	for _, dev := range c.Devices {
		if dev.Uclass == nil {
			continue
		}
		u := dev.Uclass
		if seq, ok := u.AliasByPath[dev.Node.Path]; ok {
			dev.Seq = seq
			continue
		}
		seq := smallestFree(u.AliasByNum)
		u.AliasByNum[seq] = dev.Node.Path
		u.AliasByPath[dev.Node.Path] = seq
		dev.Seq = seq
	}
}

func smallestFree(taken map[int]string) int {
	for i := 0; ; i++ {
		if _, ok := taken[i]; !ok {
			return i
		}
	}
}
