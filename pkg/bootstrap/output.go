package bootstrap

import (
	"fmt"
	"io"
	"strings"
)

// PrintBootstrapResult writes a summary of a completed bootstrap to w. A
// generated password is shown exactly once, here.
func PrintBootstrapResult(w io.Writer, result *AdminBootstrapResult) {
	if result == nil || !result.UserCreated {
		return
	}

	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nADMIN BOOTSTRAP COMPLETED\n%s\n", border, border)

	status := "already existed"
	if result.RoleCreated {
		status = "created"
	}
	fmt.Fprintf(w, "Role:     %s (%s)\n", result.RoleName, status)
	fmt.Fprintf(w, "User ID:  %s\n", result.UserID)
	fmt.Fprintf(w, "Email:    %s\n", result.Email)

	if result.Password != "" {
		fmt.Fprintf(w, "Password: %s\n", result.Password)
		fmt.Fprintln(w, "\nThis password was generated and will not be shown again.")
	} else {
		fmt.Fprintln(w, "Password: (from ADMIN_PASSWORD)")
	}
	fmt.Fprintf(w, "%s\n\n", border)
}
