// Command hivectl walks Windows registry hive files and extracts forensic
// artifacts from them.
package main

func main() {
	execute()
}
