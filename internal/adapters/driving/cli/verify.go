package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/siteassist/internal/core/domain"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Caller verification tools",
	Long:  `Simulate verification calls and work with SMS and authenticator codes.`,
}

var verifySimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate a verification call",
	Long: `Runs an interactive call. Type what the caller says; lines starting
with a slash are call events:

  /digits 123456    keypad entry
  /sensitive TEXT   ask for something that needs the authenticator
  /enroll           create an authenticator secret for this caller
  /totp             enter the current authenticator code
  /sms              show the last text sent to the caller
  /hangup           end the call`,
	Args: cobra.NoArgs,
	RunE: runVerifySimulate,
}

var verifyDecodeCmd = &cobra.Command{
	Use:   "decode [words...]",
	Short: "Decode spoken digits",
	Long:  `Converts a transcription like "four eight two nine one three" to digits.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerifyDecode,
}

var verifyTOTPSecretCmd = &cobra.Command{
	Use:   "totp-secret [account]",
	Short: "Generate an authenticator secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyTOTPSecret,
}

var (
	simulatePhone  string
	simulateCallID string
)

func init() {
	verifySimulateCmd.Flags().StringVar(&simulatePhone, "phone", "+15555550100", "caller phone number")
	verifySimulateCmd.Flags().StringVar(&simulateCallID, "call-id", "", "call identifier (random when empty)")

	verifyCmd.AddCommand(verifySimulateCmd)
	verifyCmd.AddCommand(verifyDecodeCmd)
	verifyCmd.AddCommand(verifyTOTPSecretCmd)
	rootCmd.AddCommand(verifyCmd)
}

// simulation holds the caller side of a simulated call.
type simulation struct {
	cmd    *cobra.Command
	callID string
	phone  string
	secret string
}

func runVerifySimulate(cmd *cobra.Command, _ []string) error {
	if verificationService == nil {
		return errVerificationNotConfigured
	}

	sim := &simulation{cmd: cmd, callID: simulateCallID, phone: simulatePhone}
	if sim.callID == "" {
		sim.callID = uuid.NewString()
	}

	turn, err := verificationService.Start(cmd.Context(), sim.callID, sim.phone)
	if err != nil {
		return fmt.Errorf("failed to start call: %w", err)
	}
	cmd.Printf("Call %s from %s\n\n", sim.callID, sim.phone)
	sim.printTurn(turn)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for turn.State != domain.StateEnded {
		cmd.Print("caller> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		next, handled, err := sim.handle(line)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				cmd.Println("The call has ended.")
				return nil
			}
			cmd.Printf("error: %v\n", err)
			continue
		}
		if handled {
			turn = next
			sim.printTurn(turn)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if turn.State != domain.StateEnded {
		if _, err := verificationService.Hangup(cmd.Context(), sim.callID); err != nil {
			return fmt.Errorf("failed to hang up: %w", err)
		}
	}
	return nil
}

// handle runs one caller line. handled is false for commands that only
// print local information.
func (s *simulation) handle(line string) (turn domain.Turn, handled bool, err error) {
	ctx := s.cmd.Context()
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/digits":
		turn, err = verificationService.HandleDigits(ctx, s.callID, arg)
		return turn, true, err
	case "/sensitive":
		if arg == "" {
			arg = "account balance"
		}
		turn, err = verificationService.HandleSensitiveRequest(ctx, s.callID, arg)
		return turn, true, err
	case "/enroll":
		return domain.Turn{}, false, s.enroll()
	case "/totp":
		code, err := s.totpCode()
		if err != nil {
			return domain.Turn{}, false, err
		}
		s.cmd.Printf("(authenticator shows %s)\n", code)
		turn, err = verificationService.HandleDigits(ctx, s.callID, code)
		return turn, true, err
	case "/sms":
		s.showSMS()
		return domain.Turn{}, false, nil
	case "/hangup", "/quit":
		turn, err = verificationService.Hangup(ctx, s.callID)
		return turn, true, err
	}

	if strings.HasPrefix(command, "/") {
		return domain.Turn{}, false, fmt.Errorf("%w: unknown command %s", domain.ErrInvalidInput, command)
	}
	turn, err = verificationService.HandleUtterance(ctx, s.callID, line)
	return turn, true, err
}

func (s *simulation) enroll() error {
	if totpTool == nil {
		return errors.New("authenticator support not configured")
	}
	secret, url, err := totpTool.GenerateSecret(s.phone)
	if err != nil {
		return err
	}
	if err := verificationService.EnrollTOTP(s.cmd.Context(), s.callID, secret); err != nil {
		return err
	}
	s.secret = secret
	s.cmd.Printf("(enrolled authenticator secret %s)\n", secret)
	s.cmd.Printf("(%s)\n", url)
	return nil
}

func (s *simulation) totpCode() (string, error) {
	if totpTool == nil {
		return "", errors.New("authenticator support not configured")
	}
	if s.secret == "" {
		return "", errors.New("no authenticator enrolled, use /enroll first")
	}
	return totpTool.Code(s.secret, time.Now())
}

func (s *simulation) showSMS() {
	if lastSMS == nil {
		s.cmd.Println("(no SMS outbox available)")
		return
	}
	body, ok := lastSMS(s.phone)
	if !ok {
		s.cmd.Println("(no text sent yet)")
		return
	}
	s.cmd.Printf("(sms to %s: %s)\n", s.phone, body)
}

func (s *simulation) printTurn(turn domain.Turn) {
	if turn.Prompt != "" {
		s.cmd.Printf("agent> %s\n", turn.Prompt)
	}
	transition := string(turn.State)
	if turn.Transitioned() {
		path := make([]string, 0, len(turn.Path)+1)
		path = append(path, turn.Previous.String())
		for _, state := range turn.Path {
			path = append(path, state.String())
		}
		transition = strings.Join(path, " -> ")
	}
	s.cmd.Printf("       [%s] %s", turn.Action.Kind, transition)
	if turn.Reason != "" {
		s.cmd.Printf(" (%s)", turn.Reason)
	}
	s.cmd.Println()
}

func runVerifyDecode(cmd *cobra.Command, args []string) error {
	if decodeDigits == nil {
		return errors.New("digit decoder not configured")
	}

	digits, ok := decodeDigits(strings.Join(args, " "))
	if !ok {
		cmd.Println("No digits recognised.")
		return nil
	}
	cmd.Println(digits)
	return nil
}

func runVerifyTOTPSecret(cmd *cobra.Command, args []string) error {
	if totpTool == nil {
		return errors.New("authenticator support not configured")
	}

	secret, url, err := totpTool.GenerateSecret(args[0])
	if err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}

	cmd.Printf("Secret: %s\n", secret)
	cmd.Printf("URL:    %s\n", url)
	return nil
}
