package calibration

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// cpuFeatures lists the instruction set extensions that change the speed of
// 64-bit multiply and divide, the hot operations of the block kernel. A
// profile recorded with a different list is not reused.
func cpuFeatures() []string {
	var features []string
	add := func(name string, ok bool) {
		if ok {
			features = append(features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("avx2", cpu.X86.HasAVX2)
		add("avx512f", cpu.X86.HasAVX512F)
		add("bmi2", cpu.X86.HasBMI2)
		add("adx", cpu.X86.HasADX)
		add("popcnt", cpu.X86.HasPOPCNT)
	case "arm64":
		add("asimd", cpu.ARM64.HasASIMD)
		add("sve", cpu.ARM64.HasSVE)
		add("atomics", cpu.ARM64.HasATOMICS)
	}
	return features
}
