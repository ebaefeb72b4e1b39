package fetcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// miniFTPServer is a minimal FTP server for testing. It supports just
// enough of the protocol to exercise List and Fetch.
type miniFTPServer struct {
	listener net.Listener
	fileData map[string]string // path -> content
	listing  []string          // raw LIST lines
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

func newMiniFTPServer(t *testing.T, files map[string]string, listing []string) *miniFTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &miniFTPServer{
		listener: ln,
		fileData: files,
		listing:  listing,
	}

	s.wg.Add(1)
	go s.serve(t)

	return s
}

func (s *miniFTPServer) addr() string {
	return s.listener.Addr().String()
}

func (s *miniFTPServer) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.listener.Close() //nolint:errcheck
	s.wg.Wait()
}

func (s *miniFTPServer) serve(t *testing.T) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(t, conn)
	}
}

func (s *miniFTPServer) handleConn(_ *testing.T, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close() //nolint:errcheck

	conn.SetDeadline(time.Now().Add(10 * time.Second)) //nolint:errcheck

	writer := bufio.NewWriter(conn)
	reader := bufio.NewReader(conn)

	// Send greeting
	fmt.Fprintf(writer, "220 Mini FTP Server ready\r\n") //nolint:errcheck
	writer.Flush()                                       //nolint:errcheck

	var dataListener net.Listener

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(parts[0])
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "USER", "PASS":
			fmt.Fprintf(writer, "230 User logged in\r\n") //nolint:errcheck
			writer.Flush()                                //nolint:errcheck

		case "FEAT":
			fmt.Fprintf(writer, "211-Features:\r\n") //nolint:errcheck
			fmt.Fprintf(writer, " UTF8\r\n")         //nolint:errcheck
			fmt.Fprintf(writer, "211 End\r\n")       //nolint:errcheck
			writer.Flush()                           //nolint:errcheck

		case "TYPE", "OPTS":
			fmt.Fprintf(writer, "200 OK\r\n") //nolint:errcheck
			writer.Flush()                    //nolint:errcheck

		case "EPSV":
			var err error
			dataListener, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}
			port := dataListener.Addr().(*net.TCPAddr).Port
			fmt.Fprintf(writer, "229 Entering Extended Passive Mode (|||%d|)\r\n", port) //nolint:errcheck
			writer.Flush()                                                               //nolint:errcheck

		case "PASV":
			var err error
			dataListener, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}
			addr := dataListener.Addr().(*net.TCPAddr)
			p1 := addr.Port / 256
			p2 := addr.Port % 256
			fmt.Fprintf(writer, "227 Entering Passive Mode (127,0,0,1,%d,%d)\r\n", p1, p2) //nolint:errcheck
			writer.Flush()                                                                 //nolint:errcheck

		case "LIST":
			if dataListener == nil {
				fmt.Fprintf(writer, "425 Use PASV first\r\n") //nolint:errcheck
				writer.Flush()                                //nolint:errcheck
				continue
			}

			fmt.Fprintf(writer, "150 Opening data connection\r\n") //nolint:errcheck
			writer.Flush()                                         //nolint:errcheck

			dataConn, err := dataListener.Accept()
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}
			for _, l := range s.listing {
				io.WriteString(dataConn, l+"\r\n") //nolint:errcheck
			}
			dataConn.Close()     //nolint:errcheck
			dataListener.Close() //nolint:errcheck
			dataListener = nil

			fmt.Fprintf(writer, "226 Transfer complete\r\n") //nolint:errcheck
			writer.Flush()                                   //nolint:errcheck

		case "RETR":
			if dataListener == nil {
				fmt.Fprintf(writer, "425 Use PASV first\r\n") //nolint:errcheck
				writer.Flush()                                //nolint:errcheck
				continue
			}

			content, ok := s.fileData[arg]
			if !ok {
				fmt.Fprintf(writer, "550 File not found\r\n") //nolint:errcheck
				writer.Flush()                                //nolint:errcheck
				dataListener.Close()                          //nolint:errcheck
				dataListener = nil
				continue
			}

			fmt.Fprintf(writer, "150 Opening data connection\r\n") //nolint:errcheck
			writer.Flush()                                         //nolint:errcheck

			dataConn, err := dataListener.Accept()
			if err != nil {
				fmt.Fprintf(writer, "425 Can't open data connection\r\n") //nolint:errcheck
				writer.Flush()                                            //nolint:errcheck
				continue
			}

			io.WriteString(dataConn, content) //nolint:errcheck
			dataConn.Close()                  //nolint:errcheck
			dataListener.Close()              //nolint:errcheck
			dataListener = nil

			fmt.Fprintf(writer, "226 Transfer complete\r\n") //nolint:errcheck
			writer.Flush()                                   //nolint:errcheck

		case "QUIT":
			fmt.Fprintf(writer, "221 Goodbye\r\n") //nolint:errcheck
			writer.Flush()                         //nolint:errcheck
			return

		default:
			fmt.Fprintf(writer, "502 Command not implemented\r\n") //nolint:errcheck
			writer.Flush()                                         //nolint:errcheck
		}
	}
}

func TestFTPInbox_List(t *testing.T) {
	srv := newMiniFTPServer(t, nil, []string{
		"-rw-r--r-- 1 ftp ftp      2048 Aug 01 10:00 zeta.xlsx",
		"-rw-r--r-- 1 ftp ftp      1024 Aug 01 10:00 alpha.pdf",
		"-rw-r--r-- 1 ftp ftp       512 Aug 01 10:00 notes.txt",
		"drwxr-xr-x 2 ftp ftp      4096 Aug 01 10:00 archive",
	})
	defer srv.close()

	inbox := NewFTPInbox(FTPOptions{Host: srv.addr(), Timeout: 5 * time.Second})
	names, err := inbox.List(context.Background(), "/inbox")
	require.NoError(t, err)

	// Unsupported extensions and directories are filtered; sorted order.
	assert.Equal(t, []string{"alpha.pdf", "zeta.xlsx"}, names)
}

func TestFTPInbox_Fetch(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{
		"/inbox/quote.xlsx": "workbook content",
	}, nil)
	defer srv.close()

	inbox := NewFTPInbox(FTPOptions{Host: srv.addr(), Timeout: 5 * time.Second})
	doc, err := inbox.Fetch(context.Background(), "/inbox", "quote.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "quote.xlsx", doc.Name)
	assert.Equal(t, "workbook content", string(doc.Data))
}

func TestFTPInbox_Fetch_NotFound(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{
		"/inbox/existing.xlsx": "data",
	}, nil)
	defer srv.close()

	inbox := NewFTPInbox(FTPOptions{Host: srv.addr(), Timeout: 5 * time.Second})
	_, err := inbox.Fetch(context.Background(), "/inbox", "missing.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp retrieve")
}

func TestFTPInbox_ConnectionRefused(t *testing.T) {
	inbox := NewFTPInbox(FTPOptions{Host: "127.0.0.1:19999", Timeout: 2 * time.Second})
	_, err := inbox.List(context.Background(), "/inbox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftp dial")
}

func TestHostWithPort(t *testing.T) {
	assert.Equal(t, "ftp.example.com:21", hostWithPort("ftp.example.com"))
	assert.Equal(t, "ftp.example.com:2121", hostWithPort("ftp.example.com:2121"))
	assert.Equal(t, "127.0.0.1:21", hostWithPort("127.0.0.1"))
}

func TestNewFTPInbox_Defaults(t *testing.T) {
	inbox := NewFTPInbox(FTPOptions{Host: "ftp.example.com"})
	assert.Equal(t, 30*time.Second, inbox.opts.Timeout)
	assert.Equal(t, "anonymous", inbox.opts.User)
	assert.Equal(t, "anonymous@", inbox.opts.Password)
}
