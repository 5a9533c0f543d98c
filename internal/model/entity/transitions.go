package entity

// CanTransition 校验状态流转是否合法
func CanTransition(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus 判断状态是否为终态（无后继状态）
func IsTerminalStatus(table map[string][]string, status string) bool {
	return len(table[status]) == 0
}
