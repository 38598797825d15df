// internal/writer/console.go
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/tamzrod/witmotion-modbus/internal/poller"
	"github.com/tamzrod/witmotion-modbus/internal/status"
	"github.com/tamzrod/witmotion-modbus/internal/witmotion"
)

// Console prints one line per result. Verbose adds the raw registers.
type Console struct {
	out     io.Writer
	verbose bool
}

func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, verbose: verbose}
}

func (c *Console) Write(res poller.Result) error {
	if res.Err != nil {
		_, err := fmt.Fprintf(c.out, "seq=%d error=%q code=0x%04x\n",
			res.Seq, res.Err.Error(), status.ErrorCode(res.Err))
		return err
	}

	s := res.Sample
	var b strings.Builder
	fmt.Fprintf(&b, "seq=%d addr=0x%02x", res.Seq, s.Address)
	vec(&b, "acc", s.Acceleration, "%.4f", "g")
	vec(&b, "gyro", s.AngularVelocity, "%.2f", "dps")
	vec(&b, "mag", s.Magnetic, "%.0f", "")
	vec(&b, "angle", s.Angles, "%.2f", "deg")
	if s.Temperature != nil {
		fmt.Fprintf(&b, " temp=%.2fC", *s.Temperature)
	}
	b.WriteByte('\n')

	if c.verbose {
		dumpRegisters(&b, s.Start, s.Registers)
	}

	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *Console) WriteStatus(s status.Snapshot) error {
	_, err := fmt.Fprintf(c.out, "status health=%s last_error=0x%04x seconds_in_error=%d\n",
		status.HealthName(s.Health), s.LastErrorCode, s.SecondsInError)
	return err
}

func vec(b *strings.Builder, name string, v *witmotion.Vector, verb, unit string) {
	if v == nil {
		return
	}
	f := " %s=[" + verb + " " + verb + " " + verb + "]%s"
	fmt.Fprintf(b, f, name, v[0], v[1], v[2], unit)
}

// dumpRegisters prints eight words per line, each line prefixed with its
// first register address.
func dumpRegisters(b *strings.Builder, start uint16, regs []uint16) {
	for i := 0; i < len(regs); i += 8 {
		fmt.Fprintf(b, "  0x%02x:", int(start)+i)
		for j := i; j < i+8 && j < len(regs); j++ {
			fmt.Fprintf(b, " %04x", regs[j])
		}
		b.WriteByte('\n')
	}
}
