package multiboot

// CmdLineVisitor is invoked by VisitCmdLine for each option of the kernel
// command line. For options without a value, value equals key. The visitor
// must return true to continue or false to abort the scan.
type CmdLineVisitor func(key, value string) bool

// VisitCmdLine splits the kernel command line into space-separated
// key=value options and invokes visitor for each one. Key and value alias the
// loader-provided buffer so no memory is allocated.
func (i *Info) VisitCmdLine(visitor CmdLineVisitor) {
	cmdLine, ok := i.CmdLine()
	if !ok {
		return
	}

	VisitOptions(cmdLine, visitor)
}

// VisitOptions applies the command line splitting rules of VisitCmdLine to s.
func VisitOptions(s string, visitor CmdLineVisitor) {
	for start := 0; start < len(s); {
		for start < len(s) && isSpace(s[start]) {
			start++
		}

		end := start
		for end < len(s) && !isSpace(s[end]) {
			end++
		}

		if start == end {
			return
		}

		key, value := s[start:end], s[start:end]
		for sep := start; sep < end; sep++ {
			if s[sep] == '=' {
				key, value = s[start:sep], s[sep+1:end]
				break
			}
		}

		if !visitor(key, value) {
			return
		}

		start = end
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}
