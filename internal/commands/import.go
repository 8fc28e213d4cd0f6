package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/importer"
	"github.com/SamuelPereira26/Finhouse/internal/ingest"
)

func newImportCommand() *cobra.Command {
	var repoDir string
	var fileID string

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import bank statements (defaults to every file in import/)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileID != "" && len(args) != 1 {
				return fmt.Errorf("--file-id needs exactly one file")
			}
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()
			return runImport(cmd, e, args, fileID)
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&fileID, "file-id", "", "upload id used to refuse re-imports of the same file")

	return cmd
}

func runImport(cmd *cobra.Command, e *env, paths []string, fileID string) error {
	out := cmd.OutOrStdout()

	// Without arguments, the import/ inbox is processed and each imported
	// file is moved to import/processed/.
	scanned := len(paths) == 0
	if scanned {
		files, err := importer.Scan(e.repo)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, "No files to import.")
			return nil
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		in := ingest.FileInput{FileName: filepath.Base(path), Content: content}
		if fileID != "" {
			done, err := e.svc.IsFileProcessed(cmd.Context(), fileID)
			if err != nil {
				return err
			}
			if done {
				return fmt.Errorf("file %s already processed", fileID)
			}
			in.UploadedFileID = &fileID
		}

		res, err := e.svc.ProcessFile(cmd.Context(), in)
		if saveErr := e.save(); saveErr != nil && err == nil {
			err = saveErr
		}
		if err != nil {
			return fmt.Errorf("importing %s: %w", in.FileName, err)
		}
		printResult(out, in.FileName, res)

		if scanned {
			if err := importer.MarkProcessed(e.repo, in.FileName); err != nil {
				return err
			}
		}
	}
	return nil
}

func printResult(out io.Writer, fileName string, res ingest.Result) {
	fmt.Fprintf(out, "%s: %s %s, batch %s, inserted %d, skipped %d\n",
		fileName, res.SourceInfo.Source, res.SourceInfo.AccountID, res.BatchID, res.Inserted, res.Skipped)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  WARNING %s: %s\n", w.Check, w.Details)
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(out, "  ERROR %s\n", msg)
	}
}
