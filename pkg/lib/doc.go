// Package lib provides a Go SDK for the flowctl workflow BFF: invoking
// backend workflows, waiting for asynchronous operations and uploading files
// with progress tracking.
//
// # Quick Start
//
// Create a client and invoke a workflow. The same call transparently handles
// workflows the server executes inline and workflows it accepts for
// asynchronous execution:
//
//	client, err := lib.New(lib.Config{
//	    BaseURL:  "https://bff.example.com",
//	    TenantID: "acme",
//	    Token:    lib.StaticToken("s3cr3t"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.InvokeAndWait(ctx, "install-module", payload, nil)
//
// # Sync and async invocations
//
// [Client.Invoke] returns an [OperationHandle]. A handle with
// [OperationModeSync] already carries the result in Data. A handle with
// [OperationModeAsync] carries the server-assigned operation ID; pass it to
// [Client.Wait] to poll until the operation is terminal. The synchronous
// option is only a hint, the server's response shape decides the mode.
//
// # Waiting
//
// [Client.Wait] polls the operation status every [Config].PollInterval
// (default 1s) until the server reports completed or failed. The wait holds
// no deadline of its own: bound it with a context deadline or
// [Config].MaxPollAttempts. Cancelling the context stops the polling
// deterministically.
//
// # Uploads
//
// [Client.Upload] transfers one file as a single multipart request and
// reports byte-level progress, throughput and ETA through a callback.
// [Client.UploadMany] transfers several files concurrently with fail-fast
// semantics; [Client.UploadAll] waits for every transfer to settle and
// returns the succeeded and failed sets. Both emit the whole batch's ordered
// progress on every tick.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is] and
// [errors.As]:
//
//   - [ErrNotFound]: resource or operation does not exist.
//   - [ErrNotValid]: invalid input.
//   - [InvocationError]: the initial invoke call failed.
//   - [WorkflowError]: the server reported a failed operation; the message is
//     the server's error verbatim.
//   - [UnknownStatusError]: the server reported a status outside the known set.
//   - [UploadError], [BatchUploadError]: a file transfer (or its batch) failed.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines. Its
// configuration, including tenant and credentials, is immutable after
// construction: use one client per tenant context.
package lib
